package emailsvc

import (
	"net/http"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
)

func TestMessageID(t *testing.T) {
	tests := []struct {
		name    string
		res     *rest.Response
		want    string
		wantErr string
	}{
		{
			name: "accepted",
			res:  &rest.Response{StatusCode: http.StatusAccepted, Headers: map[string][]string{"X-Message-Id": {"sg-1"}}},
			want: "sg-1",
		},
		{name: "no id", res: &rest.Response{StatusCode: http.StatusAccepted}},
		{
			name:    "rejected",
			res:     &rest.Response{StatusCode: http.StatusUnauthorized, Body: `{"errors":[{"message":"bad key"}]}`},
			wantErr: `sendgrid status 401: {"errors":[{"message":"bad key"}]}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := messageID(tc.res)
			if tc.wantErr != "" {
				assert.EqualError(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
