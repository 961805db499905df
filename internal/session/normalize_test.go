package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seumatch/seumatch/internal/identity"
)

func TestResolveEmail_Order(t *testing.T) {
	n := NewNormalizer(nil)

	cases := []struct {
		name    string
		raw     *identity.User
		want    string
		wantVia string
		wantOK  bool
	}{
		{
			name:    "direct email wins",
			raw:     &identity.User{Email: "a@seu.edu.bd", ProviderData: []identity.ProviderProfile{{ProviderID: "google.com", Email: "other@seu.edu.bd"}}},
			want:    "a@seu.edu.bd",
			wantVia: "direct",
			wantOK:  true,
		},
		{
			name:    "google link when direct missing",
			raw:     &identity.User{ProviderData: []identity.ProviderProfile{{ProviderID: "password"}, {ProviderID: "google.com", Email: "b@seu.edu.bd"}}},
			want:    "b@seu.edu.bd",
			wantVia: "google_link",
			wantOK:  true,
		},
		{
			name:    "first link fallback",
			raw:     &identity.User{ProviderData: []identity.ProviderProfile{{ProviderID: "password", Email: "c@seu.edu.bd"}}},
			want:    "c@seu.edu.bd",
			wantVia: "first_link",
			wantOK:  true,
		},
		{
			name:    "legacy field last",
			raw:     &identity.User{LegacyEmail: "d@seu.edu.bd"},
			want:    "d@seu.edu.bd",
			wantVia: "legacy",
			wantOK:  true,
		},
		{
			name:   "nothing resolves",
			raw:    &identity.User{ProviderData: []identity.ProviderProfile{{ProviderID: "google.com"}}},
			wantOK: false,
		},
		{
			name:   "nil user",
			raw:    nil,
			wantOK: false,
		},
		{
			name:    "whitespace is empty",
			raw:     &identity.User{Email: "   ", LegacyEmail: "e@seu.edu.bd"},
			want:    "e@seu.edu.bd",
			wantVia: "legacy",
			wantOK:  true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			email, via, ok := n.ResolveEmail(tc.raw)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.want, email)
				assert.Equal(t, tc.wantVia, via)
			}
		})
	}
}

func TestNormalize_FillsDisplayMetadataFromLinks(t *testing.T) {
	n := NewNormalizer(nil)
	raw := &identity.User{
		UID: "u1",
		ProviderData: []identity.ProviderProfile{
			{ProviderID: "google.com", Email: "a@seu.edu.bd", DisplayName: "Ayesha", PhotoURL: "https://p/x.png"},
		},
	}
	s := n.Normalize(raw, "a@seu.edu.bd")
	assert.Equal(t, "u1", s.UID)
	assert.Equal(t, "a@seu.edu.bd", s.Email)
	assert.Equal(t, "Ayesha", s.DisplayName)
	assert.Equal(t, "https://p/x.png", s.PhotoURL)
	require.Len(t, s.ProviderLinks, 1)
	assert.Equal(t, "google.com", s.ProviderLinks[0].ProviderID)
}

func TestNormalize_ProviderLinksAreCopied(t *testing.T) {
	n := NewNormalizer(nil)
	raw := &identity.User{
		UID: "u1",
		ProviderData: []identity.ProviderProfile{
			{ProviderID: "google.com", Email: "a@seu.edu.bd"},
			{ProviderID: "password", Email: "a@seu.edu.bd"},
		},
	}
	s := n.Normalize(raw, "a@seu.edu.bd")

	// El orden de vinculación se preserva y el slice es una copia.
	require.Len(t, s.ProviderLinks, 2)
	assert.Equal(t, "google.com", s.ProviderLinks[0].ProviderID)
	raw.ProviderData[0].ProviderID = "mutated"
	assert.Equal(t, "google.com", s.ProviderLinks[0].ProviderID)
}

func TestNormalize_TokenWithoutProviderFails(t *testing.T) {
	n := NewNormalizer(nil)
	s := n.Normalize(&identity.User{UID: "u1", Email: "a@seu.edu.bd"}, "a@seu.edu.bd")
	_, err := s.Token(context.Background(), false)
	assert.ErrorIs(t, err, ErrTokenUnavailable)
}

func TestToken_NilSession(t *testing.T) {
	var s *Session
	_, err := s.Token(context.Background(), true)
	assert.ErrorIs(t, err, ErrTokenUnavailable)
}
