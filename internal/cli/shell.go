package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/roach88/framekb/internal/engine"
	"github.com/roach88/framekb/internal/ir"
)

const shellHelp = `Commands:
  frames                                   list frames in registry order
  slots <frame>                            list slots visible from a frame
  procs                                    list registered procedures
  frame add <name> [parent]                create a frame
  frame del <name>                         delete a frame without children
  frame reparent <name> [parent]           change or clear a frame's parent
  slot add <frame> <slot> [type=T] [inheritance=Unique|Same] [value=V]
  slot del <frame> <slot>                  remove a local slot
  slot set <frame> <slot> [value]          write a value (no value clears it)
  slot get <frame> <slot>                  read a value, firing IF-NEEDED
  slot info <frame> <slot>                 describe a slot without firing demons
  proc attach <frame> <slot> <IF-NEEDED|IF-ADDED|NONE> <PRINT|FIND> <payload>
  proc run <frame> <slot>                  run a registered procedure
  find <slot=value>[, ...]                 list frames matching every condition
  help                                     show this text
  quit                                     leave the shell`

// NewShellCommand creates the shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "shell [kb-dir]",
		Short: "Edit and query a frame base interactively",
		Long: `Start a line-oriented shell over a frame base.

The base starts empty or, when kb-dir is given, loaded from a knowledge
base. Every engine operation is available; rejected operations print an
error and the shell keeps running. Output is always text.

` + shellHelp,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			kbDir := ""
			if len(args) == 1 {
				kbDir = args[0]
			}
			return runShell(opts, kbDir, cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runShell(opts *SessionOptions, kbDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	session, err := openSession(cmd.Context(), opts, kbDir, cmd.ErrOrStderr())
	if err != nil {
		return reportOpenError(formatter, err)
	}
	defer session.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "framekb shell: %d frame(s) loaded. Type help for commands.\n", session.Frames)

	sh := NewShell(session.Base, out)
	sh.Prompt = "framekb> "
	if err := sh.Run(cmd.InOrStdin()); err != nil {
		return WrapExitError(ExitCommandError, "reading input", err)
	}
	return nil
}

// Shell executes text commands against a frame base.
type Shell struct {
	// Prompt is written before each line is read.
	Prompt string

	base *engine.FrameBase
	out  io.Writer
}

// NewShell creates a shell over base that writes to out.
func NewShell(base *engine.FrameBase, out io.Writer) *Shell {
	return &Shell{base: base, out: out}
}

// Run reads commands from in until EOF or quit.
func (s *Shell) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, s.Prompt)
		if !scanner.Scan() {
			if s.Prompt != "" {
				fmt.Fprintln(s.out)
			}
			return scanner.Err()
		}
		if s.Exec(scanner.Text()) {
			return nil
		}
	}
}

// Exec runs one command line and reports whether the shell should exit.
// Errors are written to the output; they never stop the shell.
func (s *Shell) Exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false
	}

	var err error
	switch fields[0] {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(s.out, shellHelp)
	case "frames":
		s.listFrames()
	case "slots":
		err = s.listSlots(fields[1:])
	case "procs":
		s.listProcedures()
	case "frame":
		err = s.frameCommand(fields[1:])
	case "slot":
		err = s.slotCommand(line, fields[1:])
	case "proc":
		err = s.procCommand(line, fields[1:])
	case "find":
		err = s.find(restAfter(line, 1))
	default:
		err = fmt.Errorf("unknown command %q (type help)", fields[0])
	}
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
	return false
}

func (s *Shell) frameCommand(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: frame add|del|reparent <name> [parent]")
	}
	name, parent := args[1], ""
	if len(args) > 2 {
		parent = args[2]
	}

	switch args[0] {
	case "add":
		if _, err := s.base.AddFrame(name, parent); err != nil {
			return err
		}
	case "del":
		if err := s.base.DeleteFrame(name); err != nil {
			return err
		}
	case "reparent":
		if err := s.base.Reparent(name, parent); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown frame command %q", args[0])
	}
	fmt.Fprintln(s.out, "ok")
	return nil
}

func (s *Shell) slotCommand(line string, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: slot add|del|set|get|info <frame> <slot> ...")
	}
	frame, slot := args[1], args[2]

	switch args[0] {
	case "add":
		opts, err := splitOptions(restAfter(line, 4))
		if err != nil {
			return err
		}
		return s.addSlot(frame, slot, opts)

	case "del":
		removed, err := s.base.DeleteSlot(frame, slot)
		if err != nil {
			return err
		}
		if !removed {
			fmt.Fprintf(s.out, "%s has no local slot %s\n", frame, slot)
			return nil
		}
		fmt.Fprintln(s.out, "ok")

	case "set":
		var v ir.IRValue
		if raw := restAfter(line, 4); raw != "" {
			v = parseShellValue(raw)
		}
		if err := s.base.SetSlotValue(frame, slot, v); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "ok")

	case "get":
		v, ok, err := s.base.GetSlotValue(frame, slot)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, displayValue(v, ok))

	case "info":
		info, err := s.base.DescribeSlot(frame, slot)
		if err != nil {
			return err
		}
		s.writeSlotInfo(frame, info)

	default:
		return fmt.Errorf("unknown slot command %q", args[0])
	}
	return nil
}

func (s *Shell) addSlot(frame, slot string, opts []string) error {
	typ, inh := ir.SlotText, ir.InheritUnique
	var value ir.IRValue

	for _, opt := range opts {
		key, val, ok := strings.Cut(opt, "=")
		if !ok {
			return fmt.Errorf("slot add: expected key=value, got %q", opt)
		}
		switch key {
		case "type":
			t, err := ir.ParseSlotType(val)
			if err != nil {
				return err
			}
			typ = t
		case "inheritance", "inh":
			i, err := ir.ParseInheritance(val)
			if err != nil {
				return err
			}
			inh = i
		case "value":
			value = parseShellValue(val)
		default:
			return fmt.Errorf("slot add: unknown option %q", key)
		}
	}

	if err := s.base.AddSlot(frame, slot, typ, inh, value); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "ok")
	return nil
}

func (s *Shell) procCommand(line string, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: proc attach|run <frame> <slot> ...")
	}
	frame, slot := args[1], args[2]

	switch args[0] {
	case "attach":
		if len(args) < 5 {
			return fmt.Errorf("usage: proc attach <frame> <slot> <demon> <kind> <payload>")
		}
		demon, err := ir.ParseDemonKind(args[3])
		if err != nil {
			return err
		}
		kind, err := ir.ParseProcedureKind(args[4])
		if err != nil {
			return err
		}
		if err := s.base.AttachProcedure(frame, slot, demon, kind, restAfter(line, 6)); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "ok")

	case "run":
		res, err := s.base.RunProcedure(frame, slot)
		if err != nil {
			return err
		}
		if !res.Found {
			fmt.Fprintln(s.out, "not found")
			return nil
		}
		fmt.Fprintln(s.out, res.Text())

	default:
		return fmt.Errorf("unknown proc command %q", args[0])
	}
	return nil
}

func (s *Shell) find(conditions string) error {
	frames, err := s.base.FindFrames(splitConditions([]string{conditions}))
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		fmt.Fprintln(s.out, "No frames found")
		return nil
	}
	fmt.Fprintln(s.out, strings.Join(frames, "\n"))
	return nil
}

func (s *Shell) listFrames() {
	names := s.base.Frames()
	if len(names) == 0 {
		fmt.Fprintln(s.out, "no frames")
		return
	}
	for _, name := range names {
		f, ok := s.base.Frame(name)
		if ok && f.Parent() != "" {
			fmt.Fprintf(s.out, "%s (parent %s)\n", name, f.Parent())
			continue
		}
		fmt.Fprintln(s.out, name)
	}
}

func (s *Shell) listSlots(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: slots <frame>")
	}
	infos, err := s.base.DescribeFrame(args[0])
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintf(s.out, "%s has no slots\n", args[0])
		return nil
	}
	for _, info := range infos {
		line := fmt.Sprintf("%s %s %s", info.Name, info.Type, info.Inheritance)
		if info.HasValue {
			line += " = " + displayValue(info.Value, true)
		}
		if info.Inherited {
			line += " (from " + info.Owner + ")"
		}
		fmt.Fprintln(s.out, line)
	}
	return nil
}

func (s *Shell) listProcedures() {
	keys := s.base.Procedures()
	if len(keys) == 0 {
		fmt.Fprintln(s.out, "no procedures")
		return
	}
	for _, key := range keys {
		p, ok := s.base.Procedure(key)
		if !ok {
			continue
		}
		fmt.Fprintf(s.out, "%s.%s: %s\n", key.Frame, key.Slot, p)
	}
}

func (s *Shell) writeSlotInfo(frame string, info engine.SlotInfo) {
	fmt.Fprintf(s.out, "%s.%s\n", frame, info.Name)
	fmt.Fprintf(s.out, "  type: %s\n", info.Type)
	fmt.Fprintf(s.out, "  inheritance: %s\n", info.Inheritance)
	fmt.Fprintf(s.out, "  owner: %s\n", info.Owner)
	if info.HasValue {
		fmt.Fprintf(s.out, "  value: %s\n", displayValue(info.Value, true))
	} else {
		fmt.Fprintln(s.out, "  value: <none>")
	}
	if info.IfNeeded != "" {
		fmt.Fprintf(s.out, "  if-needed: %s\n", info.IfNeeded)
	}
	if info.IfAdded != "" {
		fmt.Fprintf(s.out, "  if-added: %s\n", info.IfAdded)
	}
}

// parseShellValue reads true, false and integers as such. A double-quoted
// value is always text.
func parseShellValue(raw string) ir.IRValue {
	if unq, err := strconv.Unquote(raw); err == nil && strings.HasPrefix(raw, `"`) {
		return ir.IRString(unq)
	}
	switch raw {
	case "true":
		return ir.IRBool(true)
	case "false":
		return ir.IRBool(false)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ir.IRInt(n)
	}
	return ir.IRString(raw)
}

// splitOptions splits text on whitespace outside double quotes, so that
// value="two words" stays one option. Backslash escapes a character inside
// quotes; the quotes and escapes are kept for parseShellValue.
func splitOptions(text string) ([]string, error) {
	var (
		opts    []string
		cur     strings.Builder
		quoted  bool
		escaped bool
	)
	for _, r := range text {
		switch {
		case escaped:
			escaped = false
		case quoted && r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case !quoted && unicode.IsSpace(r):
			if cur.Len() > 0 {
				opts = append(opts, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if quoted {
		return nil, fmt.Errorf("slot add: unterminated quote in %q", text)
	}
	if cur.Len() > 0 {
		opts = append(opts, cur.String())
	}
	return opts, nil
}

// restAfter returns line with its first n whitespace-separated fields
// removed, keeping the spacing of the remainder.
func restAfter(line string, n int) string {
	s := strings.TrimSpace(line)
	for i := 0; i < n && s != ""; i++ {
		idx := strings.IndexFunc(s, unicode.IsSpace)
		if idx < 0 {
			return ""
		}
		s = strings.TrimLeftFunc(s[idx:], unicode.IsSpace)
	}
	return s
}
