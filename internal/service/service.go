// Package service exposes the keyboard on the D-Bus session bus.
//
// The service object (org.mechanics.Osk) lets shells show, hide and toggle
// the keyboard. The input method bridge (org.mechanics.Osk.InputMethod)
// accepts input method events, and commands for the input method and
// virtual keyboard peers are emitted as signals on org.mechanics.Osk.Peer.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"golang.org/x/sync/errgroup"

	"osk/internal/keyboard"
	"osk/internal/logging"
	"osk/internal/protocol"
)

// D-Bus interface names.
const (
	Interface            = "org.mechanics.Osk"
	InputMethodInterface = "org.mechanics.Osk.InputMethod"
	PeerInterface        = "org.mechanics.Osk.Peer"
)

// Peer signal names.
const (
	SignalDeleteSurroundingText = "DeleteSurroundingText"
	SignalCommitString          = "CommitString"
	SignalCommit                = "Commit"
	SignalKeymap                = "Keymap"
	SignalKey                   = "Key"
	SignalModifiers             = "Modifiers"

	// SignalPreferencesRequested is emitted on Interface when the
	// preferences button is released.
	SignalPreferencesRequested = "PreferencesRequested"
)

// ErrNameTaken is returned when another process owns the bus name.
var ErrNameTaken = errors.New("service: bus name already taken")

// Keyboard is the part of the controller the service drives.
type Keyboard interface {
	Post(ctx context.Context, ev keyboard.Event) error
	State() *keyboard.State
}

// Emitter sends signals. *dbus.Conn implements it.
type Emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...any) error
}

// Config configures a Service.
type Config struct {
	BusName    string
	ObjectPath dbus.ObjectPath
	Keyboard   Keyboard
	Logger     *logging.Logger
}

// Service owns the bus name and the exported objects.
type Service struct {
	cfg   Config
	log   *logging.Logger
	conn  *dbus.Conn
	props *prop.Properties
	emit  Emitter

	visible chan bool
}

// Osk implements org.mechanics.Osk.
type Osk struct {
	kb  Keyboard
	log *logging.Logger
}

// InputMethod implements org.mechanics.Osk.InputMethod.
type InputMethod struct {
	kb  Keyboard
	log *logging.Logger
}

func post(kb Keyboard, ev keyboard.Event) *dbus.Error {
	if err := kb.Post(context.Background(), ev); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// Show maximizes the keyboard.
func (o *Osk) Show() *dbus.Error {
	o.log.Debug("show requested")
	return post(o.kb, keyboard.Maximize{})
}

// Hide minimizes the keyboard.
func (o *Osk) Hide() *dbus.Error {
	o.log.Debug("hide requested")
	return post(o.kb, keyboard.Minimize{})
}

// Toggle flips between minimized and maximized.
func (o *Osk) Toggle() *dbus.Error {
	o.log.Debug("toggle requested")
	return post(o.kb, keyboard.Toggle{})
}

// Status reports the current mode, view and layout.
func (o *Osk) Status() (mode string, view string, layout string, err *dbus.Error) {
	s := o.kb.State()
	return s.Mode().String(), s.CurrentView, s.Layout, nil
}

// Suggestions returns the current completions and the word they complete.
func (o *Osk) Suggestions() (words []string, prefix string, err *dbus.Error) {
	s := o.kb.State()
	words = s.Suggestions
	if words == nil {
		words = []string{}
	}
	return words, s.SuggestedFor, nil
}

// PickSuggestion replaces the word being typed with suggestion index.
func (o *Osk) PickSuggestion(index uint32) *dbus.Error {
	s := o.kb.State()
	if int(index) >= len(s.Suggestions) {
		return dbus.MakeFailedError(fmt.Errorf("no suggestion %d, have %d", index, len(s.Suggestions)))
	}
	return post(o.kb, keyboard.SuggestionPressed{Text: s.Suggestions[index]})
}

// Activate reports that a text field gained focus.
func (im *InputMethod) Activate() *dbus.Error {
	return post(im.kb, keyboard.InputMethod{Event: protocol.Activate{}})
}

// Deactivate reports that focus left the text field.
func (im *InputMethod) Deactivate() *dbus.Error {
	return post(im.kb, keyboard.InputMethod{Event: protocol.Deactivate{}})
}

// SurroundingText reports the text around the cursor. Offsets are in bytes.
func (im *InputMethod) SurroundingText(text string, cursor, anchor uint32) *dbus.Error {
	return post(im.kb, keyboard.InputMethod{Event: protocol.SurroundingText{Text: text, Cursor: cursor, Anchor: anchor}})
}

// ContentType reports the hint and purpose of the focused field.
func (im *InputMethod) ContentType(hint, purpose uint32) *dbus.Error {
	im.log.Debug("content type", "hint", hint, "purpose", protocol.ContentPurpose(purpose).String())
	return post(im.kb, keyboard.InputMethod{Event: protocol.ContentType{Hint: hint, Purpose: purpose}})
}

// New returns a service that is not yet connected.
func New(cfg Config) *Service {
	log := cfg.Logger
	if log == nil {
		log = logging.Default()
	}
	return &Service{
		cfg:     cfg,
		log:     log.WithComponent("dbus"),
		visible: make(chan bool, 1),
	}
}

// Start connects to the session bus, claims the bus name and exports the
// objects.
func (s *Service) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect to session bus: %w", err)
	}
	if err := s.export(conn); err != nil {
		conn.Close()
		return err
	}

	reply, err := conn.RequestName(s.cfg.BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return fmt.Errorf("%s: %w", s.cfg.BusName, ErrNameTaken)
	}

	s.conn = conn
	s.emit = conn
	s.log.Info("service started", "bus_name", s.cfg.BusName, "path", string(s.cfg.ObjectPath))
	return nil
}

func (s *Service) export(conn *dbus.Conn) error {
	path := s.cfg.ObjectPath
	osk := &Osk{kb: s.cfg.Keyboard, log: s.log}
	im := &InputMethod{kb: s.cfg.Keyboard, log: s.log}

	if err := conn.Export(osk, path, Interface); err != nil {
		return fmt.Errorf("export %s: %w", Interface, err)
	}
	if err := conn.Export(im, path, InputMethodInterface); err != nil {
		return fmt.Errorf("export %s: %w", InputMethodInterface, err)
	}

	props, err := prop.Export(conn, path, prop.Map{
		Interface: {
			"Visible": {Value: s.cfg.Keyboard.State().Mode() == keyboard.ActiveMaximized, Emit: prop.EmitTrue},
		},
	})
	if err != nil {
		return fmt.Errorf("export properties: %w", err)
	}
	s.props = props

	node := &introspect.Node{
		Name: string(path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       Interface,
				Methods:    introspect.Methods(osk),
				Signals:    []introspect.Signal{{Name: SignalPreferencesRequested}},
				Properties: props.Introspection(Interface),
			},
			{
				Name:    InputMethodInterface,
				Methods: introspect.Methods(im),
			},
			{
				Name:    PeerInterface,
				Signals: peerSignals,
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), path, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("export introspection: %w", err)
	}
	return nil
}

var peerSignals = []introspect.Signal{
	{Name: SignalDeleteSurroundingText, Args: []introspect.Arg{{Name: "before_length", Type: "u"}, {Name: "after_length", Type: "u"}}},
	{Name: SignalCommitString, Args: []introspect.Arg{{Name: "text", Type: "s"}}},
	{Name: SignalCommit},
	{Name: SignalKeymap, Args: []introspect.Arg{{Name: "fd", Type: "h"}, {Name: "size", Type: "u"}, {Name: "layout", Type: "s"}, {Name: "bin", Type: "i"}}},
	{Name: SignalKey, Args: []introspect.Arg{{Name: "keycode", Type: "u"}, {Name: "state", Type: "u"}}},
	{Name: SignalModifiers, Args: []introspect.Arg{{Name: "depressed", Type: "u"}, {Name: "latched", Type: "u"}, {Name: "locked", Type: "u"}}},
}

// Watch is registered with the controller. It records the latest
// visibility without blocking; Run publishes it.
func (s *Service) Watch(st *keyboard.State) {
	v := st.Mode() == keyboard.ActiveMaximized
	for {
		select {
		case s.visible <- v:
			return
		default:
		}
		select {
		case <-s.visible:
		default:
		}
	}
}

// Run forwards peer commands as signals and publishes visibility changes
// until ctx is cancelled. Each peer link is drained by its own goroutine,
// so a slow signal on one never holds up the other.
func (s *Service) Run(ctx context.Context, im *keyboard.Link[protocol.InputMethodCommand], vk *keyboard.Link[protocol.VirtualKeyboardCommand]) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return forward(gctx, im, s.forwardInputMethod) })
	g.Go(func() error { return forward(gctx, vk, s.forwardVirtualKeyboard) })
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case v := <-s.visible:
				if s.props != nil {
					s.props.SetMust(Interface, "Visible", v)
				}
			}
		}
	})
	return g.Wait()
}

// forward hands every command queued on l to fn until ctx ends or the
// link is closed, and closes l when it returns.
func forward[T any](ctx context.Context, l *keyboard.Link[T], fn func(T)) error {
	defer l.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.Done():
			return nil
		case cmd := <-l.C():
			fn(cmd)
		}
	}
}

// Close releases the bus connection.
func (s *Service) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// RequestPreferences asks whoever listens to open the keyboard settings.
func (s *Service) RequestPreferences() {
	s.emitOn(Interface, SignalPreferencesRequested)
}

func (s *Service) signal(name string, values ...any) {
	s.emitOn(PeerInterface, name, values...)
}

func (s *Service) emitOn(iface, name string, values ...any) {
	if s.emit == nil {
		return
	}
	if err := s.emit.Emit(s.cfg.ObjectPath, iface+"."+name, values...); err != nil {
		s.log.Warn("failed to emit signal", "signal", name, "error", err)
	}
}

func (s *Service) forwardInputMethod(cmd protocol.InputMethodCommand) {
	switch c := cmd.(type) {
	case protocol.DeleteSurroundingText:
		s.signal(SignalDeleteSurroundingText, c.BeforeLength, c.AfterLength)
	case protocol.CommitString:
		s.signal(SignalCommitString, c.Text)
	case protocol.Commit:
		s.signal(SignalCommit)
	}
}

func (s *Service) forwardVirtualKeyboard(cmd protocol.VirtualKeyboardCommand) {
	switch c := cmd.(type) {
	case protocol.SetKeymap:
		if c.File == nil {
			s.log.Warn("keymap without file", "layout", c.Layout, "bin", c.Bin)
			return
		}
		s.signal(SignalKeymap, dbus.UnixFD(c.File.Fd()), c.Size, c.Layout, int32(c.Bin))
	case protocol.Key:
		s.signal(SignalKey, c.Keycode, uint32(c.Motion))
	case protocol.SetModifiers:
		s.signal(SignalModifiers, c.Depressed, c.Latched, c.Locked)
	}
}
