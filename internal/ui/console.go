package ui

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/anyvalue"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/jobsystem"
	"github.com/zclconf/go-cty/cty"
)

// Console answers user requests of a job from a line-oriented reader.
// Requests arrive on the event loop one at a time.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// UserContext wires the console into a job manager.
func (c *Console) UserContext() jobsystem.UserContext {
	return jobsystem.UserContext{Input: c.Input, Choice: c.Choice}
}

// Input prompts until a line parses as a value of the current value's type.
// End of input abandons the request.
func (c *Console) Input(req jobsystem.InputRequest) (cty.Value, bool) {
	ty := cty.DynamicPseudoType
	if !anyvalue.IsEmpty(req.Current) {
		ty = req.Current.Type()
	}
	prompt := req.Description
	if prompt == "" {
		prompt = "value"
	}
	for {
		fmt.Fprintf(c.out, "%s [%s]: ", Accent(prompt), Muted(anyvalue.Format(req.Current)))
		line, ok := c.readLine()
		if !ok {
			return cty.NilVal, false
		}
		if line == "" && !anyvalue.IsEmpty(req.Current) {
			return req.Current, true
		}
		value, err := anyvalue.ParseLiteral(ty, line)
		if err == nil {
			return value, true
		}
		fmt.Fprintln(c.out, ErrorMsg("%v", err))
	}
}

// Choice lists the options and prompts for an index.
func (c *Console) Choice(req jobsystem.ChoiceRequest) (int, bool) {
	if text := choiceText(req.Metadata); text != "" {
		fmt.Fprintln(c.out, Bold(text))
	}
	for i, opt := range req.Options {
		fmt.Fprintf(c.out, "  %s %s\n", Accent(strconv.Itoa(i)), opt)
	}
	for {
		fmt.Fprint(c.out, Accent("choice")+": ")
		line, ok := c.readLine()
		if !ok {
			return -1, false
		}
		index, err := strconv.Atoi(line)
		if err == nil && index >= 0 && index < len(req.Options) {
			return index, true
		}
		fmt.Fprintln(c.out, ErrorMsg("enter a number between 0 and %d", len(req.Options)-1))
	}
}

// Line prints label and reads one answer. ok is false at end of input.
func (c *Console) Line(label string) (string, bool) {
	fmt.Fprint(c.out, Accent(label)+": ")
	return c.readLine()
}

func (c *Console) readLine() (string, bool) {
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

func choiceText(metadata cty.Value) string {
	if anyvalue.IsEmpty(metadata) || metadata.IsNull() || !metadata.Type().IsObjectType() {
		return ""
	}
	if !metadata.Type().HasAttribute("text") {
		return ""
	}
	text := metadata.GetAttr("text")
	if text.IsNull() || text.Type() != cty.String {
		return ""
	}
	return text.AsString()
}
