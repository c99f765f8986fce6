package document

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const documentEnd = "...\n"

type marshaller struct {
	anchors map[string]*yaml.Node
}

// Marshal serializes the document. Mapping keys keep the order of the tree,
// so equal documents always produce identical bytes.
func Marshal(doc Document) ([]byte, error) {
	m := &marshaller{anchors: make(map[string]*yaml.Node)}
	root, err := m.document(doc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, fmt.Errorf("could not encode pipeline document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("could not encode pipeline document: %w", err)
	}
	buf.WriteString(documentEnd)
	return buf.Bytes(), nil
}

func (m *marshaller) document(doc Document) (*yaml.Node, error) {
	root := mappingNode()
	if len(doc.Inherit) > 0 {
		inherit := mappingNode()
		for _, a := range doc.Inherit {
			n, err := m.fields(a.Fields)
			if err != nil {
				return nil, fmt.Errorf("inherit %s: %w", a.Name, err)
			}
			n.Anchor = a.Name
			m.anchors[a.Name] = n
			addPair(inherit, a.Name, n)
		}
		addPair(root, "inherit", inherit)
	}

	resourceTypes := sequenceNode()
	for _, rt := range doc.ResourceTypes {
		n, err := m.fields(Fields{{"name", rt.Name}, {"type", rt.Type}, {"source", rt.Source}})
		if err != nil {
			return nil, fmt.Errorf("resource type %s: %w", rt.Name, err)
		}
		resourceTypes.Content = append(resourceTypes.Content, n)
	}
	addPair(root, "resource_types", resourceTypes)

	resources := sequenceNode()
	for _, r := range doc.Resources {
		n, err := m.fields(Fields{{"name", r.Name}, {"type", r.Type}, {"source", r.Source}})
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", r.Name, err)
		}
		resources.Content = append(resources.Content, n)
	}
	addPair(root, "resources", resources)

	jobs := sequenceNode()
	for _, j := range doc.Jobs {
		n, err := m.job(j)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", j.Name, err)
		}
		jobs.Content = append(jobs.Content, n)
	}
	addPair(root, "jobs", jobs)
	return root, nil
}

func (m *marshaller) job(j Job) (*yaml.Node, error) {
	plan, err := m.plan(j.Plan)
	if err != nil {
		return nil, err
	}
	n, err := m.fields(Fields{
		{"name", j.Name},
		{"serial", j.Serial},
		{"build_logs_to_retain", j.BuildLogsToRetain},
		{"public", j.Public},
	})
	if err != nil {
		return nil, err
	}
	addPair(n, "plan", plan)
	return n, nil
}

func (m *marshaller) plan(steps []PlanStep) (*yaml.Node, error) {
	seq := sequenceNode()
	for _, s := range steps {
		n, err := m.planStep(s)
		if err != nil {
			return nil, err
		}
		seq.Content = append(seq.Content, n)
	}
	return seq, nil
}

func (m *marshaller) planStep(step PlanStep) (*yaml.Node, error) {
	switch s := step.(type) {
	case Get:
		f := Fields{{"get", s.Name}}
		if s.Trigger {
			f = append(f, Field{"trigger", true})
		}
		if len(s.Params) > 0 {
			f = append(f, Field{"params", s.Params})
		}
		return m.fields(f)
	case Put:
		f := Fields{{"put", s.Name}}
		if len(s.Params) > 0 {
			f = append(f, Field{"params", s.Params})
		}
		return m.fields(f)
	case Task:
		return m.task(s)
	case InParallel:
		inner, err := m.plan(s.Steps)
		if err != nil {
			return nil, err
		}
		n := mappingNode()
		addPair(n, "in_parallel", inner)
		return n, nil
	case Do:
		inner, err := m.plan(s.Steps)
		if err != nil {
			return nil, err
		}
		n := mappingNode()
		addPair(n, "do", inner)
		return n, m.hooks(n, s.Hooks)
	default:
		return nil, fmt.Errorf("unsupported plan step %T", step)
	}
}

func (m *marshaller) task(t Task) (*yaml.Node, error) {
	f := Fields{{"task", t.Name}}
	if t.Timeout != "" {
		f = append(f, Field{"timeout", t.Timeout})
	}
	if t.Attempts > 0 {
		f = append(f, Field{"attempts", t.Attempts})
	}
	config := Fields{
		{"platform", "linux"},
		{"image_resource", Fields{{"type", "docker-image"}, {"source", t.Image}}},
		{"inputs", nameList(t.Inputs)},
		{"outputs", nameList(t.Outputs)},
		{"params", t.Params},
		{"run", Fields{{"path", t.RunPath}, {"args", t.RunArgs}}},
	}
	f = append(f, Field{"config", config})
	n, err := m.fields(f)
	if err != nil {
		return nil, err
	}
	return n, m.hooks(n, t.Hooks)
}

func (m *marshaller) hooks(n *yaml.Node, h Hooks) error {
	for _, hook := range []struct {
		key  string
		step PlanStep
	}{{"on_success", h.OnSuccess}, {"on_failure", h.OnFailure}, {"ensure", h.Ensure}} {
		if hook.step == nil {
			continue
		}
		hn, err := m.planStep(hook.step)
		if err != nil {
			return err
		}
		addPair(n, hook.key, hn)
	}
	return nil
}

func nameList(names []string) []Fields {
	list := make([]Fields, 0, len(names))
	for _, name := range names {
		list = append(list, Fields{{"name", name}})
	}
	return list
}

func (m *marshaller) fields(f Fields) (*yaml.Node, error) {
	n := mappingNode()
	for _, field := range f {
		if field.Value == nil {
			continue
		}
		if alias, ok := field.Value.(Alias); ok && field.Key == MergeKey {
			an, err := m.alias(alias)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!merge", Value: MergeKey}, an)
			continue
		}
		v, err := m.value(field.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Key, err)
		}
		addPair(n, field.Key, v)
	}
	return n, nil
}

func (m *marshaller) alias(a Alias) (*yaml.Node, error) {
	anchor, ok := m.anchors[string(a)]
	if !ok {
		return nil, fmt.Errorf("unknown anchor %s", a)
	}
	return &yaml.Node{Kind: yaml.AliasNode, Value: string(a), Alias: anchor}, nil
}

func (m *marshaller) value(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case string:
		return stringNode(t), nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(t)}, nil
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(t)}, nil
	case []string:
		seq := sequenceNode()
		for _, s := range t {
			seq.Content = append(seq.Content, stringNode(s))
		}
		return seq, nil
	case Fields:
		return m.fields(t)
	case []Fields:
		seq := sequenceNode()
		for _, f := range t {
			n, err := m.fields(f)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	case Alias:
		return m.alias(t)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func stringNode(s string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if strings.Contains(s, "\n") {
		n.Style = yaml.LiteralStyle
	}
	return n
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func sequenceNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

func addPair(n *yaml.Node, key string, value *yaml.Node) {
	n.Content = append(n.Content, stringNode(key), value)
}
