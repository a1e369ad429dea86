// ABOUTME: Exclusion-set store kept in Charm KV so dismissals follow the agent across devices
// ABOUTME: One JSON document per owner with sorted id lists

package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harperreed/leadengine/models"
)

const exclusionsPrefix = "exclusions:"

type exclusionsDoc struct {
	Dismissed           []string `json:"dismissed"`
	Accepted            []string `json:"accepted"`
	DismissedAdvisories []string `json:"dismissed_advisories"`
}

// ExclusionStore implements the service's exclusion storage on a Client.
type ExclusionStore struct {
	client *Client
}

func NewExclusionStore(c *Client) *ExclusionStore {
	return &ExclusionStore{client: c}
}

func exclusionsKey(ownerID string) []byte {
	return []byte(exclusionsPrefix + ownerID)
}

func (s *ExclusionStore) LoadExclusions(ctx context.Context, ownerID string) (models.ExclusionState, error) {
	if err := ctx.Err(); err != nil {
		return models.ExclusionState{}, err
	}

	data, err := s.client.Get(exclusionsKey(ownerID))
	if errors.Is(err, ErrKeyNotFound) {
		return models.NewExclusionState(), nil
	}
	if err != nil {
		return models.ExclusionState{}, fmt.Errorf("failed to read exclusions: %w", err)
	}

	var doc exclusionsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.ExclusionState{}, fmt.Errorf("failed to decode exclusions: %w", err)
	}
	return models.ExclusionState{
		Dismissed:           models.NewIDSet(doc.Dismissed...),
		Accepted:            models.NewIDSet(doc.Accepted...),
		DismissedAdvisories: models.NewIDSet(doc.DismissedAdvisories...),
	}, nil
}

func (s *ExclusionStore) SaveExclusions(ctx context.Context, ownerID string, state models.ExclusionState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(exclusionsDoc{
		Dismissed:           state.Dismissed.Slice(),
		Accepted:            state.Accepted.Slice(),
		DismissedAdvisories: state.DismissedAdvisories.Slice(),
	})
	if err != nil {
		return err
	}
	if err := s.client.Set(exclusionsKey(ownerID), data); err != nil {
		return fmt.Errorf("failed to write exclusions: %w", err)
	}
	return nil
}

// Owners lists the owners that have exclusion documents.
func (s *ExclusionStore) Owners() ([]string, error) {
	keys, err := s.client.KeysWithPrefix([]byte(exclusionsPrefix))
	if err != nil {
		return nil, err
	}
	owners := make([]string, 0, len(keys))
	for _, k := range keys {
		owners = append(owners, string(k[len(exclusionsPrefix):]))
	}
	return owners, nil
}
