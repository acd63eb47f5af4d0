package subject

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"

	"github.com/openchs/openchs-server/internal/domain/referencedata"
	"github.com/openchs/openchs-server/internal/reconcile"
)

// ConceptLookup resolves concepts with their answers.
type ConceptLookup interface {
	Concept(ctx context.Context, uuid string) (*referencedata.Concept, error)
	ConceptByName(ctx context.Context, name string) (*referencedata.Concept, error)
}

// ObservationModelContract pairs a concept with its recorded value for rule
// evaluation.
type ObservationModelContract struct {
	Concept referencedata.ConceptContract `json:"concept"`
	Value   interface{}                   `json:"value"`
}

// ObservationRequest is an observation keyed by concept uuid.
type ObservationRequest struct {
	ConceptUUID string      `json:"conceptUUID" validate:"required"`
	Value       interface{} `json:"value"`
}

type ObservationService struct {
	concepts ConceptLookup
}

func NewObservationService(concepts ConceptLookup) *ObservationService {
	return &ObservationService{concepts: concepts}
}

// CreateObservations converts values keyed by concept name into stored
// observations. Coded values are answer names and become answer concept
// uuids.
func (s *ObservationService) CreateObservations(ctx context.Context, byName map[string]interface{}) (Observations, error) {
	obs := make(Observations, len(byName))
	for _, name := range sortedKeys(byName) {
		concept, err := s.concepts.ConceptByName(ctx, name)
		if err != nil {
			return nil, err
		}
		value := byName[name]
		if concept.IsCoded() {
			value, err = answerUUIDs(concept, value)
			if err != nil {
				return nil, err
			}
		}
		obs[concept.UUID] = value
	}
	return obs, nil
}

func answerUUIDs(concept *referencedata.Concept, value interface{}) (interface{}, error) {
	lookup := func(name string) (string, error) {
		a := concept.ActiveAnswerByName(name)
		if a == nil {
			return "", &reconcile.ReferenceNotFoundError{Kind: reconcile.KindConceptAnswer, ExternalID: name, By: "name"}
		}
		return a.Answer.UUID, nil
	}
	switch v := value.(type) {
	case string:
		return lookup(v)
	case []interface{}:
		uuids := make([]interface{}, 0, len(v))
		for _, item := range v {
			name, ok := item.(string)
			if !ok {
				return nil, reconcile.Invalid("answers to %s must be answer names", concept.Name)
			}
			uuid, err := lookup(name)
			if err != nil {
				return nil, err
			}
			uuids = append(uuids, uuid)
		}
		return uuids, nil
	case nil:
		return nil, nil
	default:
		return nil, reconcile.Invalid("answers to %s must be answer names", concept.Name)
	}
}

// ByName projects stored observations back to concept names, with coded
// values as answer names. Observations whose concept is gone are dropped.
func (s *ObservationService) ByName(ctx context.Context, obs Observations) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(obs))
	for _, uuid := range sortedKeys(obs) {
		concept, err := s.lookup(ctx, uuid)
		if err != nil {
			return nil, err
		}
		if concept == nil {
			continue
		}
		value := obs[uuid]
		if concept.IsCoded() {
			value = answerNames(concept, value)
		}
		out[concept.Name] = value
	}
	return out, nil
}

func answerNames(concept *referencedata.Concept, value interface{}) interface{} {
	name := func(uuid string) string {
		if a := concept.ActiveAnswerByUUID(uuid); a != nil {
			return a.Answer.Name
		}
		return uuid
	}
	switch v := value.(type) {
	case string:
		return name(v)
	case []interface{}:
		names := make([]interface{}, 0, len(v))
		for _, item := range v {
			if uuid, ok := item.(string); ok {
				names = append(names, name(uuid))
			} else {
				names = append(names, item)
			}
		}
		return names
	}
	return value
}

// ModelContracts projects stored observations for rule evaluation.
func (s *ObservationService) ModelContracts(ctx context.Context, obs Observations) ([]ObservationModelContract, error) {
	out := make([]ObservationModelContract, 0, len(obs))
	for _, uuid := range sortedKeys(obs) {
		concept, err := s.lookup(ctx, uuid)
		if err != nil {
			return nil, err
		}
		if concept == nil {
			continue
		}
		out = append(out, ObservationModelContract{Concept: conceptRef(concept), Value: obs[uuid]})
	}
	return out, nil
}

// Construct builds a model contract from a request observation. The concept
// must exist.
func (s *ObservationService) Construct(ctx context.Context, req ObservationRequest) (ObservationModelContract, error) {
	concept, err := s.concepts.Concept(ctx, req.ConceptUUID)
	if err != nil {
		return ObservationModelContract{}, err
	}
	return ObservationModelContract{Concept: conceptRef(concept), Value: req.Value}, nil
}

func (s *ObservationService) lookup(ctx context.Context, uuid string) (*referencedata.Concept, error) {
	concept, err := s.concepts.Concept(ctx, uuid)
	if errors.Is(err, reconcile.ErrReferenceNotFound) {
		zerolog.Ctx(ctx).Debug().Str("concept", uuid).Msg("observation concept not found, dropped")
		return nil, nil
	}
	return concept, err
}

func conceptRef(c *referencedata.Concept) referencedata.ConceptContract {
	return referencedata.ConceptContract{UUID: c.UUID, Name: c.Name, DataType: c.DataType}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
