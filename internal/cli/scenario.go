package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/pkg/adapters/file"
	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
)

// ErrExpectation is returned when an expect step does not match the document.
var ErrExpectation = errors.New("expectation failed")

// Scenario is a scripted editing session:
//
//	data: "<paragraph>fo[]o</paragraph>"
//	steps:
//	  - upload: [cat.png]
//	  - complete: {transfer: u1, response: {default: https://cdn.test/cat.png}}
//	  - resize: {path: [0], to: {x: 50}}
//	  - expect: '<image src="https://cdn.test/cat.png" width="500px"></image>[]<paragraph>foo</paragraph>'
type Scenario struct {
	Data  string `yaml:"data"`
	Steps []Step `yaml:"steps"`

	// Dir resolves relative upload paths.
	Dir string `yaml:"-"`
}

// Step holds exactly one operation.
type Step struct {
	Select   []int         `yaml:"select,omitempty"`
	SetData  *string       `yaml:"set_data,omitempty"`
	Upload   []string      `yaml:"upload,omitempty"`
	Complete *CompleteStep `yaml:"complete,omitempty"`
	Fail     *FailStep     `yaml:"fail,omitempty"`
	Abort    string        `yaml:"abort,omitempty"`
	Resize   *ResizeStep   `yaml:"resize,omitempty"`
	Expect   *string       `yaml:"expect,omitempty"`
}

type CompleteStep struct {
	Transfer string         `yaml:"transfer"`
	Response map[string]any `yaml:"response"`
}

type FailStep struct {
	Transfer string `yaml:"transfer"`
	Error    string `yaml:"error"`
}

type ResizeStep struct {
	Path   []int         `yaml:"path"`
	Handle domain.Handle `yaml:"handle"`
	From   domain.Point  `yaml:"from"`
	To     domain.Point  `yaml:"to"`
}

// Op names the operation of s, or "" when none or several are set.
func (s Step) Op() string {
	var ops []string
	if s.Select != nil {
		ops = append(ops, "select")
	}
	if s.SetData != nil {
		ops = append(ops, "set_data")
	}
	if s.Upload != nil {
		ops = append(ops, "upload")
	}
	if s.Complete != nil {
		ops = append(ops, "complete")
	}
	if s.Fail != nil {
		ops = append(ops, "fail")
	}
	if s.Abort != "" {
		ops = append(ops, "abort")
	}
	if s.Resize != nil {
		ops = append(ops, "resize")
	}
	if s.Expect != nil {
		ops = append(ops, "expect")
	}
	if len(ops) != 1 {
		return ""
	}
	return ops[0]
}

// LoadScenario decodes a scenario and checks every step names one operation.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	for i, step := range sc.Steps {
		if step.Op() == "" {
			return nil, fmt.Errorf("scenario step #%d must name exactly one operation", i+1)
		}
	}
	return &sc, nil
}

// StepResult reports one executed step.
type StepResult struct {
	Index  int
	Op     string
	Detail string
	Data   string
	Err    error
}

// Play runs the scenario against ed. Transfers are driven through reg, which
// must be the registry ed uploads to. It stops at the first failing step.
func (sc *Scenario) Play(ctx context.Context, ed *easel.Editor, reg *memory.Registry, report func(StepResult)) error {
	if err := ed.SetData(sc.Data); err != nil {
		return fmt.Errorf("scenario data: %w", err)
	}
	for i, step := range sc.Steps {
		res := StepResult{Index: i + 1, Op: step.Op()}
		res.Detail, res.Err = sc.apply(ctx, ed, reg, step)
		res.Data = ed.Data()
		if report != nil {
			report(res)
		}
		if res.Err != nil {
			return fmt.Errorf("step #%d (%s): %w", res.Index, res.Op, res.Err)
		}
	}
	return nil
}

func (sc *Scenario) apply(ctx context.Context, ed *easel.Editor, reg *memory.Registry, step Step) (string, error) {
	switch step.Op() {
	case "select":
		return fmt.Sprint(step.Select), ed.SelectPath(step.Select...)
	case "set_data":
		return "", ed.SetData(*step.SetData)
	case "upload":
		files := make([]ports.File, 0, len(step.Upload))
		for _, name := range step.Upload {
			path := name
			if !filepath.IsAbs(path) && sc.Dir != "" {
				path = filepath.Join(sc.Dir, path)
			}
			f, err := file.Open(path)
			if err != nil {
				return "", err
			}
			files = append(files, f)
		}
		res := ed.Upload(ctx, files...)
		ids := make([]string, len(res.Transfers))
		for i, tr := range res.Transfers {
			ids[i] = tr.ID()
		}
		detail := fmt.Sprintf("%d inserted, transfers %s", len(res.Inserted), strings.Join(ids, ","))
		if len(res.Skipped) > 0 {
			detail += fmt.Sprintf(", %d skipped", len(res.Skipped))
		}
		return detail, nil
	case "complete":
		return step.Complete.Transfer, reg.CompleteTransfer(step.Complete.Transfer, step.Complete.Response)
	case "fail":
		msg := step.Fail.Error
		if msg == "" {
			msg = "upload failed"
		}
		return step.Fail.Transfer, reg.FailTransfer(step.Fail.Transfer, errors.New(msg))
	case "abort":
		return step.Abort, reg.AbortTransfer(step.Abort)
	case "resize":
		el, err := ed.ElementAt(step.Resize.Path...)
		if err != nil {
			return "", err
		}
		handle := step.Resize.Handle
		if handle == "" {
			handle = domain.HandleBottomRight
		}
		if err := ed.Resize(ctx, el, handle, step.Resize.From, step.Resize.To); err != nil {
			return "", err
		}
		return el.StringAttribute(domain.AttrWidth), nil
	case "expect":
		if got := ed.Data(); got != *step.Expect {
			return "", fmt.Errorf("%w:\n  want %s\n  got  %s", ErrExpectation, *step.Expect, got)
		}
		return "", nil
	}
	return "", fmt.Errorf("unknown step")
}
