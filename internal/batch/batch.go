// Package batch fills a reserved region element by element and rolls the
// region back if the fill does not complete.
package batch

import (
	"github.com/wippyai/dst"
	"github.com/wippyai/dst/errors"
	"go.uber.org/zap"
)

// guard records how far a fill got. While armed, release drops every
// written element and restores the reset slot.
type guard[E any] struct {
	region  []E
	drop    func(*E)
	reset   *int
	resetTo int
	written int
	armed   bool
}

func (g *guard[E]) release() {
	if !g.armed {
		return
	}
	g.armed = false
	for i := range g.written {
		g.drop(&g.region[i])
	}
	*g.reset = g.resetTo
	if ce := dst.Logger().Check(zap.DebugLevel, "batch rolled back"); ce != nil {
		ce.Write(zap.Int("written", g.written), zap.Int("count", len(g.region)))
	}
}

// Fill writes gen(0) .. gen(len(region)-1) into region, then calls commit with
// the element count.
//
// If gen returns an error or panics, the elements already written are
// dropped once each in write order, *reset is set back to resetTo and the
// error or panic propagates unchanged. Elements past the failure point are
// never touched. drop may be nil when E needs no cleanup.
func Fill[E any](region []E, gen func(i int) (E, error), drop func(*E), reset *int, resetTo int, commit func(n int)) error {
	if reset == nil {
		panic(errors.Precondition(errors.PhaseBatch, "nil reset slot"))
	}
	if drop == nil {
		drop = func(*E) {}
	}
	g := &guard[E]{
		region:  region,
		drop:    drop,
		reset:   reset,
		resetTo: resetTo,
		armed:   true,
	}
	defer g.release()

	for i := range region {
		v, err := gen(i)
		if err != nil {
			return err
		}
		region[i] = v
		g.written++
	}

	g.armed = false
	if commit != nil {
		commit(len(region))
	}
	return nil
}
