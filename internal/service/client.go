package service

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Status is the keyboard state reported by the service.
type Status struct {
	Mode    string `json:"mode"`
	View    string `json:"view"`
	Layout  string `json:"layout"`
	Visible bool   `json:"visible"`
}

// Client talks to a running keyboard service.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
	path dbus.ObjectPath
}

// Dial connects to the service on the session bus.
func Dial(busName string, path dbus.ObjectPath) (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect to session bus: %w", err)
	}
	return &Client{conn: conn, obj: conn.Object(busName, path), path: path}, nil
}

// Close releases the bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, iface, method string, args ...any) *dbus.Call {
	return c.obj.CallWithContext(ctx, iface+"."+method, 0, args...)
}

// Show maximizes the keyboard.
func (c *Client) Show(ctx context.Context) error {
	return c.call(ctx, Interface, "Show").Err
}

// Hide minimizes the keyboard.
func (c *Client) Hide(ctx context.Context) error {
	return c.call(ctx, Interface, "Hide").Err
}

// Toggle flips between minimized and maximized.
func (c *Client) Toggle(ctx context.Context) error {
	return c.call(ctx, Interface, "Toggle").Err
}

// Status queries the keyboard state.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var st Status
	if err := c.call(ctx, Interface, "Status").Store(&st.Mode, &st.View, &st.Layout); err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	v, err := c.obj.GetProperty(Interface + ".Visible")
	if err != nil {
		return nil, fmt.Errorf("visible: %w", err)
	}
	visible, ok := v.Value().(bool)
	if !ok {
		return nil, fmt.Errorf("visible: unexpected type %s", v.Signature())
	}
	st.Visible = visible
	return &st, nil
}

// Suggestions returns the current completions and the word they complete.
func (c *Client) Suggestions(ctx context.Context) ([]string, string, error) {
	var (
		words  []string
		prefix string
	)
	if err := c.call(ctx, Interface, "Suggestions").Store(&words, &prefix); err != nil {
		return nil, "", fmt.Errorf("suggestions: %w", err)
	}
	return words, prefix, nil
}

// PickSuggestion commits suggestion index in place of the typed word.
func (c *Client) PickSuggestion(ctx context.Context, index uint32) error {
	return c.call(ctx, Interface, "PickSuggestion", index).Err
}

// Activate reports that a text field gained focus, as a compositor bridge
// would.
func (c *Client) Activate(ctx context.Context) error {
	return c.call(ctx, InputMethodInterface, "Activate").Err
}

// Deactivate reports that focus left the text field.
func (c *Client) Deactivate(ctx context.Context) error {
	return c.call(ctx, InputMethodInterface, "Deactivate").Err
}

// ContentType reports the focused field's purpose.
func (c *Client) ContentType(ctx context.Context, hint, purpose uint32) error {
	return c.call(ctx, InputMethodInterface, "ContentType", hint, purpose).Err
}

// SurroundingText reports the text around the cursor.
func (c *Client) SurroundingText(ctx context.Context, text string, cursor, anchor uint32) error {
	return c.call(ctx, InputMethodInterface, "SurroundingText", text, cursor, anchor).Err
}

// Monitor calls fn for every signal the service emits until ctx is
// cancelled. Property changes are included.
func (c *Client) Monitor(ctx context.Context, fn func(*dbus.Signal)) error {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(c.path),
	}
	if err := c.conn.AddMatchSignalContext(ctx, opts...); err != nil {
		return fmt.Errorf("add match: %w", err)
	}
	defer c.conn.RemoveMatchSignal(opts...)

	ch := make(chan *dbus.Signal, 16)
	c.conn.Signal(ch)
	defer c.conn.RemoveSignal(ch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-ch:
			if !ok {
				return nil
			}
			if sig.Path == c.path {
				fn(sig)
			}
		}
	}
}
