package xbeeio

import (
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/golog"
	"log"
)

func (x *XBee) WithGoLogger(parentLogger *log.Logger) {
	x.WithLogWrapLogger(logwrap.New(golog.Wrap(parentLogger)))
}

func (x *XBee) WithLogWrapLogger(lw logwrap.Logger) {
	x.logger = lw
}

func (c *Correlator) WithGoLogger(parentLogger *log.Logger) {
	c.WithLogWrapLogger(logwrap.New(golog.Wrap(parentLogger)))
}

func (c *Correlator) WithLogWrapLogger(lw logwrap.Logger) {
	c.logger = lw
}
