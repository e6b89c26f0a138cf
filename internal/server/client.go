package server

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nainya/timestore/pkg/history"
	"github.com/nainya/timestore/pkg/workspace"
)

// Client is a typed TimelineService client
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, name string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+name, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func idRequest(fields map[string]history.ID) *structpb.Struct {
	req := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(fields))}
	for k, id := range fields {
		req.Fields[k] = structpb.NewStringValue(id.String())
	}
	return req
}

// CreateNote creates a note and returns its ID
func (c *Client) CreateNote(ctx context.Context, title string) (history.ID, error) {
	out, err := c.invoke(ctx, "CreateNote", &structpb.Struct{Fields: map[string]*structpb.Value{
		"title": structpb.NewStringValue(title),
	}})
	if err != nil {
		return history.NoID, err
	}
	return history.ParseID(str(out, "id"))
}

// UpdateNote applies u to the note
func (c *Client) UpdateNote(ctx context.Context, id history.ID, u workspace.NoteUpdate) error {
	_, err := c.invoke(ctx, "UpdateNote", encodeUpdate(id, u))
	return err
}

// DeleteNote removes the note
func (c *Client) DeleteNote(ctx context.Context, id history.ID) error {
	_, err := c.invoke(ctx, "DeleteNote", idRequest(map[string]history.ID{"id": id}))
	return err
}

// LinkNotes links from to to and reports whether a link was added
func (c *Client) LinkNotes(ctx context.Context, from, to history.ID) (bool, error) {
	out, err := c.invoke(ctx, "LinkNotes", idRequest(map[string]history.ID{"from": from, "to": to}))
	if err != nil {
		return false, err
	}
	return boolean(out, "changed"), nil
}

// UnlinkNotes removes the link and reports whether one existed
func (c *Client) UnlinkNotes(ctx context.Context, from, to history.ID) (bool, error) {
	out, err := c.invoke(ctx, "UnlinkNotes", idRequest(map[string]history.ID{"from": from, "to": to}))
	if err != nil {
		return false, err
	}
	return boolean(out, "changed"), nil
}

// GetNote fetches a note
func (c *Client) GetNote(ctx context.Context, id history.ID) (workspace.NoteView, error) {
	out, err := c.invoke(ctx, "GetNote", idRequest(map[string]history.ID{"id": id}))
	if err != nil {
		return workspace.NoteView{}, err
	}
	return decodeNote(out)
}

// ListNotes fetches every live note
func (c *Client) ListNotes(ctx context.Context) ([]workspace.NoteView, error) {
	out, err := c.invoke(ctx, "ListNotes", empty())
	if err != nil {
		return nil, err
	}
	return decodeNotes(out)
}

// Mark stores the pending edits under an optional name
func (c *Client) Mark(ctx context.Context, name string, lock bool) (MarkReply, error) {
	out, err := c.invoke(ctx, "Mark", &structpb.Struct{Fields: map[string]*structpb.Value{
		"name": structpb.NewStringValue(name),
		"lock": structpb.NewBoolValue(lock),
	}})
	if err != nil {
		return MarkReply{}, err
	}
	return decodeMark(out), nil
}

// Unlock releases the lock taken at the marker position
func (c *Client) Unlock(ctx context.Context, pos uint64) error {
	_, err := c.invoke(ctx, "Unlock", &structpb.Struct{Fields: map[string]*structpb.Value{
		"marker": structpb.NewNumberValue(float64(pos)),
	}})
	return err
}

// Discard drops the edits made since the last mark
func (c *Client) Discard(ctx context.Context) (StatusReply, error) {
	out, err := c.invoke(ctx, "Discard", empty())
	if err != nil {
		return StatusReply{}, err
	}
	return decodeStatus(out), nil
}

// RollBack moves the timeline back to ref
func (c *Client) RollBack(ctx context.Context, ref workspace.MarkerRef) (StatusReply, error) {
	out, err := c.invoke(ctx, "RollBack", encodeRef(ref))
	if err != nil {
		return StatusReply{}, err
	}
	return decodeStatus(out), nil
}

// RollForward moves the timeline forward to ref
func (c *Client) RollForward(ctx context.Context, ref workspace.MarkerRef) (StatusReply, error) {
	out, err := c.invoke(ctx, "RollForward", encodeRef(ref))
	if err != nil {
		return StatusReply{}, err
	}
	return decodeStatus(out), nil
}

// Status fetches the timeline summary
func (c *Client) Status(ctx context.Context) (StatusReply, error) {
	out, err := c.invoke(ctx, "Status", empty())
	if err != nil {
		return StatusReply{}, err
	}
	return decodeStatus(out), nil
}

// Health reports whether the server is serving
func (c *Client) Health(ctx context.Context) (bool, error) {
	out, err := c.invoke(ctx, "Health", empty())
	if err != nil {
		return false, err
	}
	return boolean(out, "healthy"), nil
}

// WaitForHealth blocks until the gRPC health check reports TimelineService
// as SERVING or ctx ends
func WaitForHealth(ctx context.Context, cc grpc.ClientConnInterface) error {
	healthClient := grpc_health_v1.NewHealthClient(cc)
	backoff := 100 * time.Millisecond
	for {
		callCtx, cancel := context.WithTimeout(ctx, time.Second)
		resp, err := healthClient.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
		cancel()
		if err == nil && resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for gRPC health: %w", ctx.Err())
		case <-time.After(backoff):
		}

		if backoff < time.Second {
			backoff = min(backoff*2, time.Second)
		}
	}
}
