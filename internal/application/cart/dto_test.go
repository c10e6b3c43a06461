package cart

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSyncRequest_Validation(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		wantErr  bool
	}{
		{"positive", 3, false},
		{"zero", 0, true},
		{"negative", -2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := SyncRequest{Items: []SyncItem{{ProductID: uuid.New(), Quantity: tt.quantity}}}
			err := binding.Validator.ValidateStruct(req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
