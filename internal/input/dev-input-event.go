package input

import (
	"io"
	"os"

	"github.com/hpcguemes/totem/internal/types"
	"github.com/juju/errors"
	"github.com/temoto/inputevent-go"
)

const DevInputEventTag = "dev-input-event"

// linux/input-event-codes.h
const (
	evKey    = 0x01
	btnTouch = 0x14a
)

type DevInputEventSource struct {
	f io.ReadCloser
}

// compile-time interface compliance test
var _ Source = new(DevInputEventSource)

func (self *DevInputEventSource) String() string { return DevInputEventTag }

func NewDevInputEventSource(device string) (*DevInputEventSource, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, errors.Annotatef(err, "input device=%s", device)
	}
	return &DevInputEventSource{f: f}, nil
}

func NewDevInputEventReader(r io.ReadCloser) *DevInputEventSource {
	return &DevInputEventSource{f: r}
}

func (self *DevInputEventSource) Close() error { return self.f.Close() }

// Read returns key presses and touch begin, skips sync/abs motion noise.
func (self *DevInputEventSource) Read() (types.InputEvent, error) {
	for {
		ie, err := inputevent.ReadOne(self.f)
		if err != nil {
			return types.InputEvent{}, err
		}
		if ie.Type != evKey {
			continue
		}
		ev := types.InputEvent{
			Source: DevInputEventTag,
			Key:    types.InputKey(ie.Code),
			Up:     ie.Value == int32(inputevent.KeyStateUp),
		}
		if ie.Code == btnTouch && ev.Up {
			continue
		}
		return ev, nil
	}
}
