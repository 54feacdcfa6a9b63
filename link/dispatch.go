package link

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/rdx-aegse/yamcs-link/frame"
	"github.com/rdx-aegse/yamcs-link/helpers"
	"github.com/rdx-aegse/yamcs-link/log2"
	"github.com/rdx-aegse/yamcs-link/tree"
	"github.com/rdx-aegse/yamcs-link/wire"
)

// State of one inbound command packet.
type State uint8

const (
	StateReceived State = iota
	StateFrameStripped
	StateIDResolved
	StateArgsDecoded
	StateInvoked
	StateResultEncoded
	StateRejected
)

var stateNames = [...]string{
	StateReceived:      "RECEIVED",
	StateFrameStripped: "FRAME_STRIPPED",
	StateIDResolved:    "ID_RESOLVED",
	StateArgsDecoded:   "ARGS_DECODED",
	StateInvoked:       "INVOKED",
	StateResultEncoded: "RESULT_ENCODED",
	StateRejected:      "REJECTED",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

type Result struct {
	ID      int
	Command *tree.Command
	Args    wire.Args
	State   State
	// Stage names the step that dropped the packet, empty unless dispatch failed.
	Stage string
	// Value returned by handler and its encoding per command return type.
	Value   interface{}
	Encoded []byte
	// Err is *HandlerError when handler failed.
	Err error
}

func (self *Result) String() string {
	if self.Command == nil {
		return fmt.Sprintf("command id=%d state=%s", self.ID, self.State)
	}
	return fmt.Sprintf("command id=%d %s args=%v state=%s value=%v", self.ID, self.Command, self.Args, self.State, self.Value)
}

type Dispatcher struct {
	tree  *tree.Tree
	codec *frame.Codec
	log   *log2.Log
	stat  *Stat
}

func NewDispatcher(t *tree.Tree, codec *frame.Codec, log *log2.Log, stat *Stat) *Dispatcher {
	return &Dispatcher{tree: t, codec: codec, log: log, stat: stat}
}

// Dispatch runs one complete frame through strip, resolve, decode and invoke.
// Dropped packets return error (*frame.FrameError, *UnknownCommandError,
// *ArgumentDecodeError) with Result.State=REJECTED; handler is not invoked.
// Handler failure is not a dispatch error: see Result.Err.
func (self *Dispatcher) Dispatch(ctx context.Context, raw []byte) (*Result, error) {
	r := &Result{State: StateReceived}
	self.stat.CommandsReceived.Inc()

	payload, err := self.codec.Strip(raw)
	if err != nil {
		return self.drop(r, StageFrame, raw, err)
	}
	r.State = StateFrameStripped

	id, argBytes, err := self.codec.SplitID(payload)
	if err != nil {
		return self.drop(r, StageFrame, raw, err)
	}
	r.ID = id
	cmd, ok := self.tree.Command(id)
	if !ok {
		return self.drop(r, StageID, raw, &UnknownCommandError{ID: id})
	}
	r.Command = cmd
	r.State = StateIDResolved

	args, err := DecodeArgs(cmd, argBytes)
	if err != nil {
		return self.drop(r, StageArgs, raw, err)
	}
	r.Args = args
	r.State = StateArgsDecoded

	r.Value, r.Err = invoke(ctx, cmd, args)
	r.State = StateInvoked
	if r.Err == nil {
		if r.Encoded, err = wire.Encode(cmd.Return, r.Value); err != nil {
			r.Err = &HandlerError{Command: cmd.QualifiedName(), Err: errors.Annotate(err, "encode result")}
		}
	}
	if r.Err != nil {
		r.State = StateRejected
		r.Stage = StageHandler
		self.stat.Dropped(StageHandler)
		self.log.Errorf("dispatch %s err=%v", r, r.Err)
		return r, nil
	}
	r.State = StateResultEncoded
	self.stat.CommandsExecuted.Inc()
	self.log.Infof("dispatch %s", r)
	return r, nil
}

func (self *Dispatcher) drop(r *Result, stage string, raw []byte, err error) (*Result, error) {
	r.State = StateRejected
	r.Stage = stage
	self.stat.Dropped(stage)
	self.log.Errorf("dispatch drop stage=%s packet=%s err=%v", stage, helpers.FormatHex(raw), err)
	return r, errors.Annotatef(err, "dispatch stage=%s", stage)
}

// DecodeArgs requires exactly the signature's bytes; declared bounds are enforced.
func DecodeArgs(cmd *tree.Command, b []byte) (wire.Args, error) {
	name := cmd.QualifiedName()
	if len(b) != cmd.ArgSize() {
		return nil, &ArgumentDecodeError{Command: name,
			Reason: fmt.Sprintf("length=%d expected=%d", len(b), cmd.ArgSize())}
	}
	args := make(wire.Args, 0, len(cmd.Args))
	for _, arg := range cmd.Args {
		v, n, err := wire.Decode(arg.Type, b)
		if err != nil {
			return nil, &ArgumentDecodeError{Command: name, Arg: arg.Name, Reason: err.Error()}
		}
		b = b[n:]
		if arg.Min != nil || arg.Max != nil {
			f := wire.Args{v}.Float(0)
			if (arg.Min != nil && f < *arg.Min) || (arg.Max != nil && f > *arg.Max) {
				return nil, &ArgumentDecodeError{Command: name, Arg: arg.Name,
					Reason: fmt.Sprintf("value=%v outside %s", v, boundsString(arg))}
			}
		}
		args = append(args, v)
	}
	return args, nil
}

// EncodeArgs is the GCS side of DecodeArgs, used by the console and tests.
func EncodeArgs(cmd *tree.Command, values ...interface{}) ([]byte, error) {
	if len(values) != len(cmd.Args) {
		return nil, errors.Errorf("command=%s expects %d arguments, given %d", cmd, len(cmd.Args), len(values))
	}
	b := make([]byte, 0, cmd.ArgSize())
	for i, arg := range cmd.Args {
		var err error
		if b, err = wire.Append(b, arg.Type, values[i]); err != nil {
			return nil, errors.Annotatef(err, "command=%s argument=%s", cmd, arg.Name)
		}
	}
	return b, nil
}

func invoke(ctx context.Context, cmd *tree.Command, args wire.Args) (v interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = &HandlerError{Command: cmd.QualifiedName(), Err: errors.Errorf("%v", r), Panic: true}
		}
	}()
	v, err = cmd.Handler(ctx, args)
	if err != nil {
		return nil, &HandlerError{Command: cmd.QualifiedName(), Err: err}
	}
	return v, nil
}

func boundsString(arg tree.Arg) string {
	lo, hi := "-inf", "+inf"
	if arg.Min != nil {
		lo = fmt.Sprint(*arg.Min)
	}
	if arg.Max != nil {
		hi = fmt.Sprint(*arg.Max)
	}
	return "[" + lo + ", " + hi + "]"
}
