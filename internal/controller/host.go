package controller

import (
	"errors"
	"fmt"
	"strings"
)

// HostKind is the kind of entity a controller is attached to.
type HostKind int

const (
	HostUnknown HostKind = iota
	HostModel
	HostSensor
)

func (k HostKind) String() string {
	switch k {
	case HostModel:
		return "model"
	case HostSensor:
		return "sensor"
	default:
		return fmt.Sprintf("HostKind(%d)", int(k))
	}
}

func (k HostKind) Valid() bool {
	return k == HostModel || k == HostSensor
}

var ErrUnsupportedHost = errors.New("controller: parent must be a model or a sensor")

// Host describes the entity owning a controller.
type Host struct {
	Kind HostKind
	Name string
	// Models lists the enclosing models, outermost first. For a model host
	// it ends with the host itself.
	Models []string
}

// ScopedName prefixes name with the enclosing model names, "outer::inner::name".
func (h Host) ScopedName(name string) string {
	if len(h.Models) == 0 {
		return name
	}
	return strings.Join(h.Models, "::") + "::" + name
}
