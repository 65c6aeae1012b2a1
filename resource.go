package schedval

import (
	"fmt"
	"sort"
)

// Reg identifies a general purpose register.
type Reg uint32

// String returns the string representation of the register.
func (r Reg) String() string { return fmt.Sprintf("r%d", uint32(r)) }

// PredReg identifies a predicate register.
type PredReg uint32

// String returns the string representation of the predicate register.
func (p PredReg) String() string { return fmt.Sprintf("p%d", uint32(p)) }

// ResourceKind represents the tag of a resource.
type ResourceKind int

// Resource kinds, in encoding order.
const (
	ResourceMem = ResourceKind(iota + 1)
	ResourceReg
	ResourcePred
)

// Resource represents a register, a predicate register, or memory.
type Resource struct {
	Kind ResourceKind
	ID   uint32
}

// MemResource returns the single memory resource.
func MemResource() Resource { return Resource{Kind: ResourceMem} }

// RegResource returns the resource for a register.
func RegResource(r Reg) Resource { return Resource{Kind: ResourceReg, ID: uint32(r)} }

// PredResource returns the resource for a predicate register.
func PredResource(p PredReg) Resource { return Resource{Kind: ResourcePred, ID: uint32(p)} }

// Encode returns the positive integer encoding of the resource. Memory is
// fixed at one while registers and predicate registers use the even and
// odd numbers above it.
func (r Resource) Encode() uint64 {
	switch r.Kind {
	case ResourceMem:
		return 1
	case ResourceReg:
		return 2*uint64(r.ID) + 2
	case ResourcePred:
		return 2*uint64(r.ID) + 3
	default:
		panic(fmt.Sprintf("invalid resource kind: %d", r.Kind))
	}
}

// DecodeResource returns the resource for an encoded value.
func DecodeResource(v uint64) (Resource, error) {
	switch {
	case v == 0:
		return Resource{}, fmt.Errorf("invalid resource encoding: %d", v)
	case v == 1:
		return MemResource(), nil
	case v%2 == 0:
		return Resource{Kind: ResourceReg, ID: uint32((v - 2) / 2)}, nil
	default:
		return Resource{Kind: ResourcePred, ID: uint32((v - 3) / 2)}, nil
	}
}

// String returns the string representation of the resource.
func (r Resource) String() string {
	switch r.Kind {
	case ResourceMem:
		return "mem"
	case ResourceReg:
		return Reg(r.ID).String()
	case ResourcePred:
		return PredReg(r.ID).String()
	default:
		return fmt.Sprintf("Resource<%d,%d>", r.Kind, r.ID)
	}
}

// CompareResource returns an integer comparing two resources by encoding.
// The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
func CompareResource(a, b Resource) int {
	if x, y := a.Encode(), b.Encode(); x < y {
		return -1
	} else if x > y {
		return 1
	}
	return 0
}

// resourceComparer compares two resources. Implements immutable.Comparer.
type resourceComparer struct{}

// Compare returns -1 if a is less than b, returns 1 if a is greater than b,
// and returns 0 if a is equal to b. Panic if a or b is not a Resource.
func (c *resourceComparer) Compare(a, b interface{}) int {
	return CompareResource(a.(Resource), b.(Resource))
}

// sortResources sorts a in encoding order.
func sortResources(a []Resource) {
	sort.Slice(a, func(i, j int) bool { return CompareResource(a[i], a[j]) == -1 })
}
