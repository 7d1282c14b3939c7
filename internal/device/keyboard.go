// Package device provides the simulated PS/2 keyboard and PIT timer that
// raise interrupts through an irq.Controller.
package device

import (
	"sync"

	"kasync/internal/irq"
	"kasync/internal/keyboard"
)

// DataPort is the PS/2 controller data port.
const DataPort uint16 = 0x60

// Keyboard is a PS/2 keyboard: each byte is latched into the data port and
// IRQ1 is raised; the handler reads the port.
type Keyboard struct {
	ctrl *irq.Controller
	enc  *keyboard.Encoder
	sink func(uint8)

	// mu serializes producers; latch is read by the handler under the gate.
	mu    sync.Mutex
	latch uint8
}

// NewKeyboard returns a keyboard that types with layout. Scancodes read by
// HandleIRQ go to sink, or to keyboard.AddScancode when sink is nil.
func NewKeyboard(ctrl *irq.Controller, layout keyboard.Layout, sink func(uint8)) *Keyboard {
	if sink == nil {
		sink = keyboard.AddScancode
	}
	return &Keyboard{
		ctrl: ctrl,
		enc:  keyboard.NewEncoder(layout),
		sink: sink,
	}
}

// ReadPort returns the latched byte for DataPort and 0xFF for any other port.
func (k *Keyboard) ReadPort(port uint16) uint8 {
	if port != DataPort {
		return 0xFF
	}
	return k.latch
}

// HandleIRQ is the IRQ1 handler.
func (k *Keyboard) HandleIRQ() {
	k.sink(k.ReadPort(DataPort))
}

// Inject raises one interrupt per byte.
func (k *Keyboard) Inject(codes ...uint8) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, c := range codes {
		k.latch = c
		k.ctrl.Raise(irq.LineKeyboard)
	}
}

// Type injects the press and release scancodes for r.
func (k *Keyboard) Type(r rune) error {
	codes, err := k.enc.Encode(r)
	if err != nil {
		return err
	}
	k.Inject(codes...)
	return nil
}

// Press injects a press and release of a key that types no character, such
// as an arrow key.
func (k *Keyboard) Press(key keyboard.KeyCode) {
	k.Inject(k.enc.AppendKey(nil, key, false)...)
}
