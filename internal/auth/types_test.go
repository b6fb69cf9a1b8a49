package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCredentialType(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    CredentialType
		wantErr bool
	}{
		{
			name: "service account",
			data: `{"type":"service_account","client_email":"bot@example.iam.gserviceaccount.com"}`,
			want: CredentialTypeServiceAccount,
		},
		{
			name: "installed app",
			data: `{"installed":{"client_id":"id","client_secret":"secret"}}`,
			want: CredentialTypeOAuthClient,
		},
		{
			name: "web app",
			data: `{"web":{"client_id":"id"}}`,
			want: CredentialTypeOAuthClient,
		},
		{
			name:    "unknown shape",
			data:    `{"foo":"bar"}`,
			want:    CredentialTypeUnknown,
			wantErr: true,
		},
		{
			name:    "not json",
			data:    `nope`,
			want:    CredentialTypeUnknown,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectCredentialType([]byte(tt.data))
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCredentialTypeString(t *testing.T) {
	assert.Equal(t, "OAuth Client", CredentialTypeOAuthClient.String())
	assert.Equal(t, "Service Account", CredentialTypeServiceAccount.String())
	assert.Equal(t, "Unknown", CredentialTypeUnknown.String())
}
