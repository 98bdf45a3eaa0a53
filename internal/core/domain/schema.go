package domain

import (
	"fmt"
	"math"
	"sync"
)

// SchemaKind tags the asset type a contract is built on. New kinds plug in
// through RegisterSchema without touching the validator's traversal logic.
type SchemaKind uint8

const (
	// SchemaFungible is the divisible-asset schema: state values are
	// amounts in atomic units and every transition conserves their sum.
	SchemaFungible SchemaKind = 1
	// SchemaCollectible is the unique-token schema: state values are token
	// ids, each owned by exactly one seal at any time.
	SchemaCollectible SchemaKind = 2
)

func (k SchemaKind) String() string {
	switch k {
	case SchemaFungible:
		return "fungible"
	case SchemaCollectible:
		return "collectible"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// SchemaKindFromString parses the names produced by String.
func SchemaKindFromString(s string) (SchemaKind, error) {
	switch s {
	case "fungible":
		return SchemaFungible, nil
	case "collectible":
		return SchemaCollectible, nil
	default:
		return 0, fmt.Errorf("%w: unknown schema %q", ErrSchemaViolation, s)
	}
}

// SchemaValidator holds the per-asset-type acceptance predicates invoked
// for the genesis and for every transition of a consignment.
type SchemaValidator interface {
	Kind() SchemaKind
	ValidateGenesis(g *Genesis) error
	ValidateTransition(inputs, outputs []StateAssignment) error
}

var (
	schemaMtx      sync.RWMutex
	schemaRegistry = map[SchemaKind]SchemaValidator{}
)

// RegisterSchema adds a schema validator to the registry. Registering the
// same kind twice overrides the previous validator.
func RegisterSchema(v SchemaValidator) {
	schemaMtx.Lock()
	defer schemaMtx.Unlock()
	schemaRegistry[v.Kind()] = v
}

// SchemaForKind returns the registered validator for the given kind.
func SchemaForKind(k SchemaKind) (SchemaValidator, bool) {
	schemaMtx.RLock()
	defer schemaMtx.RUnlock()
	v, ok := schemaRegistry[k]
	return v, ok
}

func init() {
	RegisterSchema(fungibleSchema{})
	RegisterSchema(collectibleSchema{})
}

type fungibleSchema struct{}

func (fungibleSchema) Kind() SchemaKind { return SchemaFungible }

func (fungibleSchema) ValidateGenesis(g *Genesis) error {
	if g.Supply == 0 {
		return fmt.Errorf("%w: fungible supply must be positive", ErrSchemaViolation)
	}
	total, err := sumAssignments(g.Allocations)
	if err != nil {
		return err
	}
	if total != g.Supply {
		return fmt.Errorf(
			"%w: allocations assign %d units, supply is %d",
			ErrSchemaViolation, total, g.Supply,
		)
	}
	return nil
}

func (fungibleSchema) ValidateTransition(inputs, outputs []StateAssignment) error {
	in, err := sumAssignments(inputs)
	if err != nil {
		return err
	}
	out, err := sumAssignments(outputs)
	if err != nil {
		return err
	}
	if in != out {
		return fmt.Errorf(
			"%w: transition closes %d units but opens %d",
			ErrSchemaViolation, in, out,
		)
	}
	return nil
}

func sumAssignments(assignments []StateAssignment) (uint64, error) {
	var total uint64
	for _, a := range assignments {
		if a.Value == 0 {
			return 0, fmt.Errorf(
				"%w: zero-amount assignment to seal %s",
				ErrSchemaViolation, a.Seal,
			)
		}
		if a.Value > math.MaxUint64-total {
			return 0, fmt.Errorf("%w: amount overflow", ErrSchemaViolation)
		}
		total += a.Value
	}
	return total, nil
}

type collectibleSchema struct{}

func (collectibleSchema) Kind() SchemaKind { return SchemaCollectible }

func (collectibleSchema) ValidateGenesis(g *Genesis) error {
	if uint64(len(g.Allocations)) != g.Supply {
		return fmt.Errorf(
			"%w: %d tokens allocated, supply is %d",
			ErrSchemaViolation, len(g.Allocations), g.Supply,
		)
	}
	return validateUniqueTokens(g.Allocations)
}

// ValidateTransition requires every token id closed by the transition to
// reappear on exactly one output seal: collectibles move, never split.
func (collectibleSchema) ValidateTransition(inputs, outputs []StateAssignment) error {
	if err := validateUniqueTokens(outputs); err != nil {
		return err
	}
	if len(inputs) != len(outputs) {
		return fmt.Errorf(
			"%w: transition closes %d tokens but opens %d",
			ErrSchemaViolation, len(inputs), len(outputs),
		)
	}
	tokens := make(map[uint64]struct{}, len(inputs))
	for _, in := range inputs {
		tokens[in.Value] = struct{}{}
	}
	for _, out := range outputs {
		if _, ok := tokens[out.Value]; !ok {
			return fmt.Errorf(
				"%w: token %d appears out of nowhere", ErrSchemaViolation, out.Value,
			)
		}
		delete(tokens, out.Value)
	}
	return nil
}

func validateUniqueTokens(assignments []StateAssignment) error {
	seen := make(map[uint64]struct{}, len(assignments))
	for _, a := range assignments {
		if _, ok := seen[a.Value]; ok {
			return fmt.Errorf(
				"%w: token %d assigned twice", ErrSchemaViolation, a.Value,
			)
		}
		seen[a.Value] = struct{}{}
	}
	return nil
}
