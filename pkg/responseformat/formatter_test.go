package responseformat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	Name     string  `json:"name"`
	LengthKm float64 `json:"length_km"`
	Note     string  `json:"note,omitempty"`
}

type wrapped struct{ inner map[string]int }

func (w wrapped) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.inner)
}

func TestWriteResponseFormats(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		contentType string
	}{
		{"default json", "/api/summary", "application/json"},
		{"explicit json", "/api/summary?format=json", "application/json"},
		{"msgpack", "/api/summary?format=msgpack", "application/x-msgpack"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)

			err := NewFormatter().WriteResponse(rec, req, payload{Name: "ridge", LengthKm: 12.5}, map[string]string{"X-Test": "1"})
			require.NoError(t, err)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "1", rec.Header().Get("X-Test"))

			var decoded map[string]any
			if tt.contentType == "application/x-msgpack" {
				require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &decoded))
			} else {
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
			}
			assert.Equal(t, "ridge", decoded["name"])
			assert.Equal(t, 12.5, decoded["length_km"])
			assert.NotContains(t, decoded, "note")
		})
	}
}

func TestWriteStatusMsgPackUsesJSONMarshaler(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x?format=msgpack", nil)

	require.NoError(t, NewFormatter().WriteStatus(rec, req, http.StatusAccepted, wrapped{map[string]int{"a": 1}}, nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var decoded map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.EqualValues(t, 1, decoded["a"])
}

func TestWriteRaw(t *testing.T) {
	rec := httptest.NewRecorder()
	body := []byte("<gpx></gpx>")

	err := NewFormatter().WriteRaw(rec, "application/gpx+xml", body, map[string]string{
		"Content-Disposition": `attachment; filename="converted_output.gpx"`,
	})
	require.NoError(t, err)

	assert.Equal(t, "application/gpx+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "11", rec.Header().Get("Content-Length"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "converted_output.gpx")
	assert.Equal(t, body, rec.Body.Bytes())
}
