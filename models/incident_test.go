package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestIncidentLocationJSONKeepsSubmittedShape(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		var req CreateIncidentRequest
		require.NoError(t, json.Unmarshal([]byte(`{"type":"SOS","location":"Near the old bridge"}`), &req))
		require.NotNil(t, req.Location)
		assert.Nil(t, req.Location.Point)
		assert.Equal(t, "Near the old bridge", req.Location.Text)

		out, err := json.Marshal(req.Location)
		require.NoError(t, err)
		assert.JSONEq(t, `"Near the old bridge"`, string(out))
	})

	t.Run("object", func(t *testing.T) {
		var req CreateIncidentRequest
		body := `{"type":"RISK","location":{"lat":17.385,"lng":78.4867,"address":"Hyderabad"}}`
		require.NoError(t, json.Unmarshal([]byte(body), &req))
		require.NotNil(t, req.Location)
		require.NotNil(t, req.Location.Point)
		assert.InDelta(t, 17.385, req.Location.Point.Lat, 1e-9)
		assert.Equal(t, "Hyderabad", req.Location.Point.Address)

		out, err := json.Marshal(req.Location)
		require.NoError(t, err)
		assert.JSONEq(t, `{"lat":17.385,"lng":78.4867,"address":"Hyderabad"}`, string(out))
	})

	t.Run("null", func(t *testing.T) {
		var req CreateIncidentRequest
		require.NoError(t, json.Unmarshal([]byte(`{"type":"SOS","location":null}`), &req))
		assert.Nil(t, req.Location)
	})

	t.Run("number rejected", func(t *testing.T) {
		var req CreateIncidentRequest
		assert.Error(t, json.Unmarshal([]byte(`{"type":"SOS","location":42}`), &req))
	})
}

func TestIncidentLocationBSON(t *testing.T) {
	for name, loc := range map[string]*IncidentLocation{
		"text":  TextLocation("Sector 4 market"),
		"point": PointLocation(17.4, 78.5, "Gachibowli"),
	} {
		t.Run(name, func(t *testing.T) {
			raw, err := bson.Marshal(Incident{Type: IncidentTypeSOS, Location: loc})
			require.NoError(t, err)

			var decoded Incident
			require.NoError(t, bson.Unmarshal(raw, &decoded))
			require.NotNil(t, decoded.Location)
			assert.Equal(t, loc.Text, decoded.Location.Text)
			assert.Equal(t, loc.Point, decoded.Location.Point)
		})
	}

	t.Run("legacy string document", func(t *testing.T) {
		raw, err := bson.Marshal(bson.M{"type": "RISK", "location": "Old town"})
		require.NoError(t, err)

		var decoded Incident
		require.NoError(t, bson.Unmarshal(raw, &decoded))
		assert.Equal(t, "Old town", decoded.Location.String())
	})

	t.Run("nil stored as null", func(t *testing.T) {
		raw, err := bson.Marshal(Incident{Type: IncidentTypeSOS})
		require.NoError(t, err)
		assert.Equal(t, bson.TypeNull, bson.Raw(raw).Lookup("location").Type)
	})
}

func TestIncidentStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to IncidentStatus
		ok       bool
	}{
		{IncidentStatusOpen, IncidentStatusAssigned, true},
		{IncidentStatusOpen, IncidentStatusResolved, true},
		{IncidentStatusAssigned, IncidentStatusInProgress, true},
		{IncidentStatusInProgress, IncidentStatusResolved, true},
		{IncidentStatusResolved, IncidentStatusClosed, true},
		{IncidentStatusAssigned, IncidentStatusAssigned, true},
		{IncidentStatusAssigned, IncidentStatusOpen, false},
		{IncidentStatusResolved, IncidentStatusInProgress, false},
		{IncidentStatusClosed, IncidentStatusResolved, false},
		{IncidentStatusOpen, IncidentStatus("archived"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "", (*IncidentLocation)(nil).String())
	assert.Equal(t, "Gate 3", TextLocation("Gate 3").String())
	assert.Equal(t, "Tank Bund (17.42000, 78.47000)", PointLocation(17.42, 78.47, "Tank Bund").String())
}
