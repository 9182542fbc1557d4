package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	helio "github.com/itsbrex/helio-workstation"
	"github.com/itsbrex/helio-workstation/midi"
	"github.com/itsbrex/helio-workstation/tree"
	"github.com/itsbrex/helio-workstation/utils"
)

var ErrBadCommand = errors.New("bad command, try help")
var ErrUnknownTrack = errors.New("no such track in this session")

// session holds the live tracks being edited; the store holds their saved
// versions.
type session struct {
	store  *helio.Store
	tracks map[uuid.UUID]helio.TrackedItem
	logger utils.Logger
}

func newSession(store *helio.Store, logger utils.Logger) *session {
	return &session{
		store:  store,
		tracks: make(map[uuid.UUID]helio.TrackedItem),
		logger: logger,
	}
}

func (s *session) run(cmd string, args []string) error {
	switch cmd {
	case "help":
		fmt.Println(helpText)
		return nil
	case "new":
		return s.newTrack(args)
	case "set":
		return s.setProperty(args)
	case "event":
		return s.addEvent(args)
	case "note":
		return s.addNote(args)
	case "clip":
		return s.addClip(args)
	case "save":
		return s.save(args)
	case "checkout":
		return s.checkout(args)
	case "diff":
		return s.diff(args)
	case "show":
		return s.show(args)
	case "list":
		return s.list()
	default:
		return ErrBadCommand
	}
}

const helpText = `commands:
  new piano|automation <name>     create a live track
  set <id> name|colour|instrument|controller <value>
  event <id> <beat> <value>       add an automation event
  note <id> <key> <beat> <len>    add a note
  clip <id> <beat>                add a clip
  save <id>                       snapshot the live track into the store
  checkout <id>                   reset the live track to its stored version
  diff <id>                       live vs stored version
  show <id>                       dump the live track document as YAML
  list                            stored tracked items
  exit`

func (s *session) track(arg string) (helio.TrackedItem, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return nil, ErrBadCommand
	}
	item, ok := s.tracks[id]
	if !ok {
		return nil, ErrUnknownTrack
	}
	return item, nil
}

func (s *session) newTrack(args []string) error {
	if len(args) != 2 {
		return ErrBadCommand
	}
	var item helio.TrackedItem
	switch args[0] {
	case "piano":
		track := midi.NewPianoTrack(args[1])
		track.SetLogger(s.logger)
		item = track
	case "automation":
		track := midi.NewAutomationTrack(args[1])
		track.SetLogger(s.logger)
		item = track
	default:
		return ErrBadCommand
	}
	s.tracks[item.UUID()] = item
	fmt.Println(item.UUID())
	return nil
}

// trackEditor is the user-edit surface shared by all track kinds.
type trackEditor interface {
	SetName(string)
	SetColour(midi.Colour)
	SetInstrumentID(string)
}

func (s *session) setProperty(args []string) error {
	if len(args) != 3 {
		return ErrBadCommand
	}
	item, err := s.track(args[0])
	if err != nil {
		return err
	}
	editor, ok := item.(trackEditor)
	if !ok {
		return ErrBadCommand
	}
	switch args[1] {
	case "name":
		editor.SetName(args[2])
	case "colour":
		colour, err := midi.ParseColour(args[2])
		if err != nil {
			return err
		}
		editor.SetColour(colour)
	case "instrument":
		editor.SetInstrumentID(args[2])
	case "controller":
		track, ok := item.(*midi.AutomationTrack)
		if !ok {
			return ErrBadCommand
		}
		cc, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return ErrBadCommand
		}
		track.SetControllerNumber(cc)
	default:
		return ErrBadCommand
	}
	return nil
}

func (s *session) addEvent(args []string) error {
	if len(args) != 3 {
		return ErrBadCommand
	}
	item, err := s.track(args[0])
	if err != nil {
		return err
	}
	track, ok := item.(*midi.AutomationTrack)
	if !ok {
		return ErrBadCommand
	}
	beat, err1 := strconv.ParseFloat(args[1], 64)
	value, err2 := strconv.ParseFloat(args[2], 64)
	if err1 != nil || err2 != nil {
		return ErrBadCommand
	}
	event := track.AddEvent(midi.AutomationEvent{Beat: beat, Value: value})
	fmt.Println(event.ID)
	return nil
}

func (s *session) addNote(args []string) error {
	if len(args) != 4 {
		return ErrBadCommand
	}
	item, err := s.track(args[0])
	if err != nil {
		return err
	}
	track, ok := item.(*midi.PianoTrack)
	if !ok {
		return ErrBadCommand
	}
	key, err1 := strconv.ParseInt(args[1], 10, 64)
	beat, err2 := strconv.ParseFloat(args[2], 64)
	length, err3 := strconv.ParseFloat(args[3], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return ErrBadCommand
	}
	note := track.AddNote(midi.Note{Key: key, Beat: beat, Length: length, Velocity: 1})
	fmt.Println(note.ID)
	return nil
}

func (s *session) addClip(args []string) error {
	if len(args) != 2 {
		return ErrBadCommand
	}
	item, err := s.track(args[0])
	if err != nil {
		return err
	}
	beat, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return ErrBadCommand
	}
	switch track := item.(type) {
	case *midi.AutomationTrack:
		fmt.Println(track.AddClip(midi.Clip{Beat: beat}).ID)
	case *midi.PianoTrack:
		fmt.Println(track.AddClip(midi.Clip{Beat: beat}).ID)
	}
	return nil
}

func (s *session) save(args []string) error {
	if len(args) != 1 {
		return ErrBadCommand
	}
	item, err := s.track(args[0])
	if err != nil {
		return err
	}
	return s.store.SaveSnapshot(item)
}

func (s *session) checkout(args []string) error {
	if len(args) != 1 {
		return ErrBadCommand
	}
	item, err := s.track(args[0])
	if err != nil {
		return err
	}
	return s.store.Checkout(item)
}

func (s *session) diff(args []string) error {
	if len(args) != 1 {
		return ErrBadCommand
	}
	item, err := s.track(args[0])
	if err != nil {
		return err
	}
	stored, err := s.store.LoadSnapshot(item.UUID())
	if err != nil {
		return err
	}
	candidates, err := helio.Diff(item, stored)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Println("no differences")
		return nil
	}
	for _, candidate := range candidates {
		for i := 0; i < candidate.NumDeltas(); i++ {
			delta := candidate.Delta(i)
			fmt.Printf("%s: %s\n", delta.Type(), delta.Description())
			data, err := candidate.DeltaData(i)
			if err != nil {
				return err
			}
			if err := dumpYAML(data); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *session) show(args []string) error {
	if len(args) != 1 {
		return ErrBadCommand
	}
	item, err := s.track(args[0])
	if err != nil {
		return err
	}
	switch track := item.(type) {
	case *midi.AutomationTrack:
		return dumpYAML(track.Serialize())
	case *midi.PianoTrack:
		return dumpYAML(track.Serialize())
	}
	return ErrBadCommand
}

func (s *session) list() error {
	ids, err := s.store.ListItems()
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func dumpYAML(node *tree.Node) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return err
	}
	return enc.Close()
}
