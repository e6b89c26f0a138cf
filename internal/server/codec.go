package server

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nainya/timestore/pkg/history"
	"github.com/nainya/timestore/pkg/workspace"
)

var errBadRequest = errors.New("bad request")

// StatusReply is the wire form of workspace.Status
type StatusReply struct {
	Current        uint64
	CurrentName    string
	Latest         uint64
	CanRollBack    bool
	CanRollForward bool
	Notes          int
	Pending        int
}

// MarkReply describes a stored marker
type MarkReply struct {
	Position uint64
	Name     string
}

func statusReply(s workspace.Status) StatusReply {
	return StatusReply{
		Current:        s.Current.Position(),
		CurrentName:    s.Current.Name(),
		Latest:         s.Latest.Position(),
		CanRollBack:    s.CanRollBack,
		CanRollForward: s.CanRollForward,
		Notes:          s.Notes,
		Pending:        s.Pending,
	}
}

func encodeStatus(s StatusReply) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"current":          structpb.NewNumberValue(float64(s.Current)),
		"current_name":     structpb.NewStringValue(s.CurrentName),
		"latest":           structpb.NewNumberValue(float64(s.Latest)),
		"can_roll_back":    structpb.NewBoolValue(s.CanRollBack),
		"can_roll_forward": structpb.NewBoolValue(s.CanRollForward),
		"notes":            structpb.NewNumberValue(float64(s.Notes)),
		"pending":          structpb.NewNumberValue(float64(s.Pending)),
	}}
}

func decodeStatus(in *structpb.Struct) StatusReply {
	return StatusReply{
		Current:        uint64(number(in, "current")),
		CurrentName:    str(in, "current_name"),
		Latest:         uint64(number(in, "latest")),
		CanRollBack:    boolean(in, "can_roll_back"),
		CanRollForward: boolean(in, "can_roll_forward"),
		Notes:          int(number(in, "notes")),
		Pending:        int(number(in, "pending")),
	}
}

func encodeMark(m history.Marker) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"marker": structpb.NewNumberValue(float64(m.Position())),
		"name":   structpb.NewStringValue(m.Name()),
	}}
}

func decodeMark(in *structpb.Struct) MarkReply {
	return MarkReply{
		Position: uint64(number(in, "marker")),
		Name:     str(in, "name"),
	}
}

func encodeNote(v workspace.NoteView) *structpb.Struct {
	links := make([]*structpb.Value, len(v.Links))
	for i, id := range v.Links {
		links[i] = structpb.NewStringValue(id.String())
	}
	attrs := make(map[string]*structpb.Value, len(v.Attributes))
	for k, val := range v.Attributes {
		attrs[k] = structpb.NewStringValue(val)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":         structpb.NewStringValue(v.ID.String()),
		"title":      structpb.NewStringValue(v.Title),
		"tags":       stringList(v.Tags),
		"attributes": structpb.NewStructValue(&structpb.Struct{Fields: attrs}),
		"links":      structpb.NewListValue(&structpb.ListValue{Values: links}),
		"pinned":     structpb.NewBoolValue(v.Pinned),
	}}
}

func decodeNote(in *structpb.Struct) (workspace.NoteView, error) {
	id, err := historyID(in, "id")
	if err != nil {
		return workspace.NoteView{}, err
	}
	v := workspace.NoteView{
		ID:         id,
		Title:      str(in, "title"),
		Tags:       texts(in, "tags"),
		Attributes: stringMap(in, "attributes"),
		Pinned:     boolean(in, "pinned"),
	}
	for _, s := range texts(in, "links") {
		link, err := history.ParseID(s)
		if err != nil {
			return workspace.NoteView{}, err
		}
		v.Links = append(v.Links, link)
	}
	return v, nil
}

func encodeNotes(views []workspace.NoteView) *structpb.Struct {
	notes := make([]*structpb.Value, len(views))
	for i, v := range views {
		notes[i] = structpb.NewStructValue(encodeNote(v))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"notes": structpb.NewListValue(&structpb.ListValue{Values: notes}),
	}}
}

func decodeNotes(in *structpb.Struct) ([]workspace.NoteView, error) {
	var views []workspace.NoteView
	for _, v := range in.GetFields()["notes"].GetListValue().GetValues() {
		view, err := decodeNote(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func encodeUpdate(id history.ID, u workspace.NoteUpdate) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"id": structpb.NewStringValue(id.String()),
	}
	if u.Title != nil {
		fields["title"] = structpb.NewStringValue(*u.Title)
	}
	if len(u.AddTags) > 0 {
		fields["add_tags"] = stringList(u.AddTags)
	}
	if len(u.RemoveTags) > 0 {
		fields["remove_tags"] = stringList(u.RemoveTags)
	}
	if len(u.Attributes) > 0 {
		attrs := make(map[string]*structpb.Value, len(u.Attributes))
		for k, v := range u.Attributes {
			attrs[k] = structpb.NewStringValue(v)
		}
		fields["attributes"] = structpb.NewStructValue(&structpb.Struct{Fields: attrs})
	}
	if len(u.RemoveAttributes) > 0 {
		fields["remove_attributes"] = stringList(u.RemoveAttributes)
	}
	if u.Pinned != nil {
		fields["pinned"] = structpb.NewBoolValue(*u.Pinned)
	}
	return &structpb.Struct{Fields: fields}
}

func decodeUpdate(in *structpb.Struct) (history.ID, workspace.NoteUpdate, error) {
	id, err := historyID(in, "id")
	if err != nil {
		return history.NoID, workspace.NoteUpdate{}, err
	}
	u := workspace.NoteUpdate{
		AddTags:          texts(in, "add_tags"),
		RemoveTags:       texts(in, "remove_tags"),
		Attributes:       stringMap(in, "attributes"),
		RemoveAttributes: texts(in, "remove_attributes"),
	}
	if v, ok := in.GetFields()["title"]; ok {
		title := v.GetStringValue()
		u.Title = &title
	}
	if v, ok := in.GetFields()["pinned"]; ok {
		pinned := v.GetBoolValue()
		u.Pinned = &pinned
	}
	return id, u, nil
}

func encodeRef(ref workspace.MarkerRef) *structpb.Struct {
	fields := map[string]*structpb.Value{}
	if ref.Name != "" {
		fields["name"] = structpb.NewStringValue(ref.Name)
	}
	if ref.HasPos {
		fields["marker"] = structpb.NewNumberValue(float64(ref.Position))
	}
	return &structpb.Struct{Fields: fields}
}

func decodeRef(in *structpb.Struct) (workspace.MarkerRef, error) {
	ref := workspace.MarkerRef{Name: str(in, "name")}
	if v, ok := in.GetFields()["marker"]; ok {
		pos, err := position(v)
		if err != nil {
			return ref, err
		}
		ref.Position, ref.HasPos = pos, true
	}
	if ref.Name != "" && ref.HasPos {
		return ref, fmt.Errorf("%w: marker and name are exclusive", errBadRequest)
	}
	return ref, nil
}

func position(v *structpb.Value) (uint64, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue < 0 || n.NumberValue != float64(uint64(n.NumberValue)) {
		return 0, fmt.Errorf("%w: marker must be a non-negative integer", errBadRequest)
	}
	return uint64(n.NumberValue), nil
}

func historyID(in *structpb.Struct, key string) (history.ID, error) {
	s := str(in, key)
	if s == "" {
		return history.NoID, fmt.Errorf("%w: %s is required", errBadRequest, key)
	}
	id, err := history.ParseID(s)
	if err != nil {
		return history.NoID, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return id, nil
}

func stringList(values []string) *structpb.Value {
	list := make([]*structpb.Value, len(values))
	for i, s := range values {
		list[i] = structpb.NewStringValue(s)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: list})
}

func str(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

func number(in *structpb.Struct, key string) float64 {
	return in.GetFields()[key].GetNumberValue()
}

func boolean(in *structpb.Struct, key string) bool {
	return in.GetFields()[key].GetBoolValue()
}

func texts(in *structpb.Struct, key string) []string {
	var out []string
	for _, v := range in.GetFields()[key].GetListValue().GetValues() {
		out = append(out, v.GetStringValue())
	}
	return out
}

func stringMap(in *structpb.Struct, key string) map[string]string {
	fields := in.GetFields()[key].GetStructValue().GetFields()
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v.GetStringValue()
	}
	return out
}
