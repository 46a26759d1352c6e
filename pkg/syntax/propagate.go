package syntax

import (
	"fjacquet/hbci-codec/pkg/codecerror"
	"fjacquet/hbci-codec/pkg/schema"
)

func (e *Element) propagateRoot(target, value string, allowCreate, allowOverwrite bool) error {
	handled, err := e.propagate(target, value, allowCreate, allowOverwrite)
	if err != nil {
		return err
	}
	if !handled {
		return codecerror.NoSuchPath(target)
	}
	return nil
}

// propagate routes value to the element at target. Existing occurrences are
// tried first; with allowCreate, the next occurrence of an existing container
// or the first occurrence of a left-out optional declaration is created and
// tried, and removed again if the value cannot be placed in it.
func (e *Element) propagate(target, value string, allowCreate, allowOverwrite bool) (bool, error) {
	if target == e.path {
		if e.kind == schema.KindElement {
			return true, e.assign(value, allowOverwrite)
		}
		if value == RequestTag {
			e.requested = true
			return true, nil
		}
		return true, codecerror.NoSuchPath(target)
	}
	if !Within(target, e.path) || e.kind == schema.KindElement {
		return false, nil
	}

	for _, c := range e.containers {
		for _, inst := range c.elements {
			if !Within(target, inst.path) {
				continue
			}
			handled, err := inst.propagate(target, value, allowCreate, allowOverwrite)
			if handled || err != nil {
				return handled, err
			}
		}
	}
	if !allowCreate {
		return false, nil
	}

	for _, c := range e.containers {
		if len(c.elements) >= c.ref.MaxNum || !Within(target, c.instancePath(len(c.elements))) {
			continue
		}
		inst, err := c.create()
		if err != nil {
			return true, err
		}
		handled, err := inst.propagate(target, value, allowCreate, allowOverwrite)
		if handled && err == nil {
			return true, nil
		}
		c.removeLast()
		return handled, err
	}

	for _, ref := range e.def.Children {
		if e.container(ref) != nil || !Within(target, ChildPath(e.path, ref.Name, 0)) {
			continue
		}
		c := &Container{ref: ref, parent: e}
		inst, err := c.create()
		if err != nil {
			return true, err
		}
		e.insertContainer(c)
		handled, err := inst.propagate(target, value, allowCreate, allowOverwrite)
		if handled && err == nil {
			return true, nil
		}
		e.removeContainer(c)
		return handled, err
	}
	return false, nil
}
