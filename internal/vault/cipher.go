package vault

import (
	"context"
	"fmt"

	"iris/internal/models"
)

// DetailCipher seals the narrative fields of an idea detail. The idea id is
// the derivation context, so a ciphertext cannot be replayed onto another idea.
type DetailCipher struct {
	client  *Client
	keyName string
}

// NewDetailCipher creates the key if needed and returns a cipher over it
func NewDetailCipher(ctx context.Context, client *Client, keyName string) (*DetailCipher, error) {
	if keyName == "" {
		keyName = "idea-details"
	}
	if err := client.EnsureKey(ctx, keyName); err != nil {
		return nil, err
	}
	return &DetailCipher{client: client, keyName: keyName}, nil
}

func narrativeFields(d *models.IdeaDetail) []*string {
	return []*string{&d.ProblemStatement, &d.ProposedSolution, &d.ValueProposition, &d.RiskAssessment}
}

// Seal encrypts the narrative fields in place
func (c *DetailCipher) Seal(ctx context.Context, d *models.IdeaDetail) error {
	if d.Sealed {
		return nil
	}
	for _, field := range narrativeFields(d) {
		if *field == "" {
			continue
		}
		ciphertext, err := c.client.Encrypt(ctx, c.keyName, []byte(*field), d.IdeaID)
		if err != nil {
			return fmt.Errorf("failed to seal idea detail: %w", err)
		}
		*field = ciphertext
	}
	d.Sealed = true
	return nil
}

// Open decrypts the narrative fields of a sealed detail in place
func (c *DetailCipher) Open(ctx context.Context, d *models.IdeaDetail) error {
	if !d.Sealed {
		return nil
	}
	for _, field := range narrativeFields(d) {
		if *field == "" {
			continue
		}
		plaintext, err := c.client.Decrypt(ctx, c.keyName, *field, d.IdeaID)
		if err != nil {
			return fmt.Errorf("failed to open idea detail: %w", err)
		}
		*field = string(plaintext)
	}
	d.Sealed = false
	return nil
}
