package validator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/model"
	"github.com/aretw0/easel/pkg/schema"
)

// Options tunes Validate.
type Options struct {
	// Media is the media element name. Defaults to "image".
	Media string
	// AllowPending accepts media elements still waiting for an upload.
	AllowPending bool
}

type item struct {
	el   *domain.Element
	path string
}

// Validate parses markup and checks every node against s. Unlike the schema
// check run by the editor, it does not stop at the first problem.
func Validate(s *schema.Schema, markup string, opts Options) error {
	root, _, err := model.Parse(markup)
	if err != nil {
		return err
	}
	if opts.Media == "" {
		opts.Media = domain.NameImage
	}

	var problems []string
	queue := []item{{el: root, path: "/"}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		ctx := schema.ContextOf(current.el)

		for i, child := range current.el.Children() {
			path := current.path + strconv.Itoa(i)
			switch c := child.(type) {
			case *domain.Text:
				if !s.CheckChild(ctx, domain.NameText, nil) {
					problems = append(problems, fmt.Sprintf("%s: text not allowed in %s", path, current.el.Name()))
				}
			case *domain.Element:
				queue = append(queue, item{el: c, path: path + "/"})
				if !s.IsRegistered(c.Name()) {
					problems = append(problems, fmt.Sprintf("%s: unknown element %s", path, c.Name()))
					continue
				}
				attrs := c.Attributes()
				if !s.CheckChild(ctx, c.Name(), attrs) {
					problems = append(problems, fmt.Sprintf("%s: %s not allowed in %s", path, c.Name(), current.el.Name()))
				}
				for _, key := range c.AttributeKeys() {
					if !s.CheckAttribute(ctx.Push(c.Name()), key) {
						problems = append(problems, fmt.Sprintf("%s: attribute %q not allowed on %s", path, key, c.Name()))
					}
				}
				if err := s.ValidateValues(c.Name(), attrs); err != nil {
					problems = append(problems, fmt.Sprintf("%s: %s", path, strings.TrimSpace(err.Error())))
				}
				if c.Name() == opts.Media && !opts.AllowPending {
					if id := c.StringAttribute(domain.AttrUploadID); id != "" {
						problems = append(problems, fmt.Sprintf("%s: upload %s is still pending", path, id))
					}
				}
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: found %d errors:\n- %s", domain.ErrSchemaViolation, len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}
