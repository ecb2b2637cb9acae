//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jsphweid/midigen/cmd"
	"github.com/jsphweid/midigen/codec"
	"github.com/jsphweid/midigen/model"
)

func createGenerateReqBody(t *testing.T, cfg model.GenerationConfig) io.Reader {
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(data)
}

func TestGenerateE2E(t *testing.T) {
	seed := int64(42)
	body := createGenerateReqBody(t, model.GenerationConfig{
		Key:   "C",
		Scale: "major",
		Tempo: 120,
		Bars:  4,
		Seed:  &seed,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
	w := httptest.NewRecorder()
	cmd.HandleGenerate(w, req)

	resp := w.Result()
	respBody, _ := io.ReadAll(resp.Body)

	assert := assert.New(t)
	assert.Equal(200, resp.StatusCode)
	assert.Equal("audio/midi", resp.Header.Get("Content-Type"))

	seq, err := codec.Decode(respBody)
	assert.NoError(err)
	assert.Equal(120.0, seq.Tempo)
	assert.GreaterOrEqual(len(seq.Tracks), 1)
}

func TestGenerateInvalidConfigE2E(t *testing.T) {
	body := createGenerateReqBody(t, model.GenerationConfig{
		Key:   "C",
		Scale: "major",
		Tempo: 120,
		Bars:  -1,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
	w := httptest.NewRecorder()
	cmd.HandleGenerate(w, req)

	resp := w.Result()
	respBody, _ := io.ReadAll(resp.Body)

	assert := assert.New(t)
	assert.Equal(400, resp.StatusCode)

	var errResp model.ErrorResponse
	assert.NoError(json.Unmarshal(respBody, &errResp))
	assert.Contains(errResp.Error, "bars")
}

func TestAccompanyE2E(t *testing.T) {
	seed := int64(3)
	genBody := createGenerateReqBody(t, model.GenerationConfig{
		Key:   "C",
		Scale: "major",
		Tempo: 110,
		Bars:  4,
		Seed:  &seed,
	})
	genW := httptest.NewRecorder()
	cmd.HandleGenerate(genW, httptest.NewRequest(http.MethodPost, "/api/generate", genBody))
	midiBytes, _ := io.ReadAll(genW.Result().Body)

	req := httptest.NewRequest(http.MethodPost, "/api/accompany?progression=1,4,5,1", bytes.NewReader(midiBytes))
	w := httptest.NewRecorder()
	cmd.HandleAccompany(w, req)

	resp := w.Result()
	respBody, _ := io.ReadAll(resp.Body)

	assert := assert.New(t)
	assert.Equal(200, resp.StatusCode)
	assert.Equal("audio/midi", resp.Header.Get("Content-Type"))

	combined, err := codec.Decode(respBody)
	assert.NoError(err)
	original, err := codec.Decode(midiBytes)
	assert.NoError(err)
	assert.Equal(len(original.Tracks)+1, len(combined.Tracks))
	assert.Equal(original.Bars(), combined.Bars())
}

func TestAccompanyRejectsGarbageE2E(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/accompany", bytes.NewReader([]byte("not midi")))
	w := httptest.NewRecorder()
	cmd.HandleAccompany(w, req)

	assert.Equal(t, 400, w.Result().StatusCode)
}

func TestInspectRoundTripE2E(t *testing.T) {
	seed := int64(7)
	genBody := createGenerateReqBody(t, model.GenerationConfig{
		Key:   "G",
		Scale: "major",
		Tempo: 90,
		Bars:  2,
		Seed:  &seed,
	})
	genReq := httptest.NewRequest(http.MethodPost, "/api/generate", genBody)
	genW := httptest.NewRecorder()
	cmd.HandleGenerate(genW, genReq)
	midiBytes, _ := io.ReadAll(genW.Result().Body)

	req := httptest.NewRequest(http.MethodPost, "/api/inspect", bytes.NewReader(midiBytes))
	w := httptest.NewRecorder()
	cmd.HandleInspect(w, req)

	resp := w.Result()
	respBody, _ := io.ReadAll(resp.Body)

	assert := assert.New(t)
	assert.Equal(200, resp.StatusCode)

	var inspect model.InspectResponse
	assert.NoError(json.Unmarshal(respBody, &inspect))
	assert.Equal(90.0, inspect.Tempo)
	assert.Equal("4/4", inspect.TimeSig)
	assert.Greater(inspect.NumNotes, 0)
}

func TestInspectMalformedE2E(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/inspect", bytes.NewReader([]byte("not midi")))
	w := httptest.NewRecorder()
	cmd.HandleInspect(w, req)

	assert.Equal(t, 400, w.Result().StatusCode)
}
