package testutil

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"sync"

	"iris/internal/models"
)

// FakeFileStore keeps uploads in memory
type FakeFileStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

// NewFakeFileStore creates an empty in-memory file store
func NewFakeFileStore() *FakeFileStore {
	return &FakeFileStore{Objects: map[string][]byte{}}
}

// Put stores the stream under key
func (f *FakeFileStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Objects[key] = data
	return key, nil
}

// Delete removes the object stored under ref
func (f *FakeFileStore) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Objects[ref]; !ok {
		return errors.New("object not found: " + ref)
	}
	delete(f.Objects, ref)
	return nil
}

// Len returns the number of stored objects
func (f *FakeFileStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Objects)
}

// FakeCipher seals by base64-encoding with a marker prefix
type FakeCipher struct{}

const fakeSealPrefix = "sealed:"

func fakeFields(d *models.IdeaDetail) []*string {
	return []*string{&d.ProblemStatement, &d.ProposedSolution, &d.ValueProposition, &d.RiskAssessment}
}

// Seal encodes the narrative fields
func (FakeCipher) Seal(_ context.Context, d *models.IdeaDetail) error {
	for _, f := range fakeFields(d) {
		*f = fakeSealPrefix + base64.StdEncoding.EncodeToString([]byte(d.IdeaID+"|"+*f))
	}
	d.Sealed = true
	return nil
}

// Open decodes the narrative fields
func (FakeCipher) Open(_ context.Context, d *models.IdeaDetail) error {
	if !d.Sealed {
		return nil
	}
	for _, f := range fakeFields(d) {
		if len(*f) < len(fakeSealPrefix) {
			return errors.New("not sealed")
		}
		raw, err := base64.StdEncoding.DecodeString((*f)[len(fakeSealPrefix):])
		if err != nil {
			return err
		}
		prefix := d.IdeaID + "|"
		if len(raw) < len(prefix) || string(raw[:len(prefix)]) != prefix {
			return errors.New("sealed for another idea")
		}
		*f = string(raw[len(prefix):])
	}
	d.Sealed = false
	return nil
}
