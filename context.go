package mllp

import (
	"math"
)

const (
	abortIndex = math.MaxInt8 >> 1
)

// Context carries one received message through the handler chain.
type Context struct {
	session *Session
	msg     *Message
	replied bool

	handlers []HandlerFunc
	index    int8
}

type HandlerFunc func(c *Context)

func NewContext(session *Session, msg *Message) *Context {
	return &Context{
		session: session,
		msg:     msg,
		index:   -1,
	}
}

func (c *Context) Session() *Session {
	return c.session
}

func (c *Context) Remote() string {
	return c.session.Remote()
}

func (c *Context) Message() *Message {
	return c.msg
}

func (c *Context) Type() string {
	return c.msg.Type()
}

func (c *Context) ControlID() string {
	return c.msg.ControlID()
}

// Reply frames segments and writes them back on the same connection.
func (c *Context) Reply(segments []byte) error {
	c.replied = true
	return WriteFrame(c.session, segments)
}

// Replied reports whether a handler already answered.
func (c *Context) Replied() bool {
	return c.replied
}

// Close drops the connection after the current message.
func (c *Context) Close() error {
	return c.session.Close()
}

// handler chain

func (c *Context) Next() {
	c.index++
	for c.index < int8(len(c.handlers)) {
		c.handlers[c.index](c)
		c.index++
	}
}

func (c *Context) Abort() {
	c.index = abortIndex
}

func (c *Context) IsAborted() bool {
	return c.index >= abortIndex
}
