package dispatch

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"HibiscusSOS/internal/models"
	"HibiscusSOS/internal/store"
)

func newTestDispatcher(hooks ...ArchiveHook) *Dispatcher {
	return New(store.New(), hooks...)
}

func dispatchJSON(d *Dispatcher, typ string, payload interface{}) []Outbound {
	raw, _ := json.Marshal(payload)
	frame, _ := json.Marshal(Message{Type: typ, Payload: raw})
	return d.Dispatch(frame)
}

func TestDispatchNewAlert(t *testing.T) {
	d := newTestDispatcher()

	out := dispatchJSON(d, TypeNewAlert, NewAlertPayload{
		Location: "34.05,-118.24",
		Urgency:  models.SeverityMedium,
		UserID:   "user-1",
	})

	assert.Len(t, out, 1)
	assert.Equal(t, TypeAlertCreated, out[0].Type)
	alert := out[0].Payload.(*models.Alert)
	assert.NotEmpty(t, alert.ID)
	assert.Equal(t, models.SeverityMedium, alert.Status)
	assert.True(t, alert.Pending())
}

func TestDispatchNewAlertDefaultsToCritical(t *testing.T) {
	d := newTestDispatcher()

	out := dispatchJSON(d, TypeNewAlert, map[string]string{"location": "x"})

	alert := out[0].Payload.(*models.Alert)
	assert.Equal(t, models.SeverityCritical, alert.Status)
}

func TestDispatchNewAlertRequiresLocation(t *testing.T) {
	d := newTestDispatcher()

	out := dispatchJSON(d, TypeNewAlert, map[string]string{"userId": "u"})
	assert.Empty(t, out)
}

func TestDispatchAcceptThenResolve(t *testing.T) {
	d := newTestDispatcher()
	created := dispatchJSON(d, TypeNewAlert, NewAlertPayload{Location: "loc"})
	id := created[0].Payload.(*models.Alert).ID

	out := dispatchJSON(d, TypeAcceptAlert, AlertRefPayload{ID: id})
	assert.Len(t, out, 1)
	assert.Equal(t, TypeAlertUpdated, out[0].Type)
	assert.True(t, out[0].Payload.(*models.Alert).Accepted)

	out = dispatchJSON(d, TypeResolveAlert, AlertRefPayload{ID: id})
	assert.Len(t, out, 1)
	assert.Equal(t, TypeAlertResolved, out[0].Type)
	b := out[0].Payload.(AlertResolvedBroadcast)
	assert.Equal(t, id, b.AlertID)
	assert.Equal(t, models.ResolutionResolved, b.ResolvedAlert.ResolutionType)

	snap := d.Snapshot()
	assert.Empty(t, snap.Alerts)
	assert.Len(t, snap.History, 1)
}

func TestDispatchRejectSkipsAccept(t *testing.T) {
	d := newTestDispatcher()
	created := dispatchJSON(d, TypeNewAlert, NewAlertPayload{Location: "loc"})
	id := created[0].Payload.(*models.Alert).ID

	out := dispatchJSON(d, TypeRejectAlert, AlertRefPayload{ID: id})
	assert.Equal(t, TypeAlertResolved, out[0].Type)
	resolved := out[0].Payload.(AlertResolvedBroadcast).ResolvedAlert
	assert.False(t, resolved.Accepted)
	assert.Equal(t, models.ResolutionRejected, resolved.ResolutionType)
}

func TestDispatchUnknownIDIsSilent(t *testing.T) {
	d := newTestDispatcher()

	assert.Empty(t, dispatchJSON(d, TypeAcceptAlert, AlertRefPayload{ID: "nope"}))
	assert.Empty(t, dispatchJSON(d, TypeResolveAlert, AlertRefPayload{ID: "nope"}))
	assert.Empty(t, d.Snapshot().Alerts)
}

func TestDispatchLateCommandAfterArchive(t *testing.T) {
	d := newTestDispatcher()
	created := dispatchJSON(d, TypeNewAlert, NewAlertPayload{Location: "loc"})
	id := created[0].Payload.(*models.Alert).ID

	dispatchJSON(d, TypeResolveAlert, AlertRefPayload{ID: id})

	// 归档后的重复指令全部吞掉，历史列表不变
	assert.Empty(t, dispatchJSON(d, TypeAcceptAlert, AlertRefPayload{ID: id}))
	assert.Empty(t, dispatchJSON(d, TypeResolveAlert, AlertRefPayload{ID: id}))
	assert.Len(t, d.Snapshot().History, 1)
}

func TestDispatchArchiveHook(t *testing.T) {
	var got []string
	d := newTestDispatcher(func(a *models.Alert) {
		got = append(got, a.ID)
	})
	created := dispatchJSON(d, TypeNewAlert, NewAlertPayload{Location: "loc"})
	id := created[0].Payload.(*models.Alert).ID

	dispatchJSON(d, TypeResolveAlert, AlertRefPayload{ID: id})
	assert.Equal(t, []string{id}, got)
}

func TestDispatchLocationUpdate(t *testing.T) {
	d := newTestDispatcher()
	addr := "123 Main St"

	out := dispatchJSON(d, TypeLocationUpdate, LocationUpdatePayload{
		UserID: "user-1", Location: "1.0,2.0", FullAddress: &addr,
	})

	assert.Len(t, out, 1)
	assert.Equal(t, TypeUserLocationUpdated, out[0].Type)
	b := out[0].Payload.(UserLocationBroadcast)
	assert.Equal(t, "user-1", b.UserID)
	assert.Contains(t, b.ActiveUsers, "user-1")
}

func TestDispatchLocationUpdatePatchesOwnAlerts(t *testing.T) {
	d := newTestDispatcher()
	dispatchJSON(d, TypeNewAlert, NewAlertPayload{Location: "old", UserID: "user-1"})

	out := dispatchJSON(d, TypeLocationUpdate, LocationUpdatePayload{
		UserID: "user-1", Location: "new",
	})

	assert.Len(t, out, 2)
	assert.Equal(t, TypeAlertUpdated, out[1].Type)
	assert.Equal(t, "new", out[1].Payload.(*models.Alert).Location)
}

func TestDispatchDisasterLifecycle(t *testing.T) {
	d := newTestDispatcher()

	out := dispatchJSON(d, TypeActivateDisaster, DisasterPayload{Type: "earthquake"})
	assert.Equal(t, TypeDisasterActivated, out[0].Type)
	dm := out[0].Payload.(models.DisasterMode)
	assert.True(t, dm.Active)
	assert.Equal(t, "earthquake", dm.Type)

	out = dispatchJSON(d, TypeDeactivateDisaster, nil)
	assert.Equal(t, TypeDisasterDeactivated, out[0].Type)
	assert.False(t, d.Snapshot().DisasterMode.Active)
}

func TestDispatchTrafficSimMerges(t *testing.T) {
	d := newTestDispatcher()
	on := true
	level := "high"

	dispatchJSON(d, TypeUpdateTrafficSim, models.TrafficSimulation{Active: &on})
	out := dispatchJSON(d, TypeUpdateTrafficSim, models.TrafficSimulation{CongestionLevel: &level})

	ts := out[0].Payload.(models.TrafficSimulation)
	assert.True(t, *ts.Active)
	assert.Equal(t, "high", *ts.CongestionLevel)
}

func TestDispatchMapViewMode(t *testing.T) {
	d := newTestDispatcher()

	out := dispatchJSON(d, TypeSetMapViewMode, MapViewPayload{Mode: models.MapViewSatellite})
	assert.Equal(t, TypeMapViewModeUpdated, out[0].Type)
	assert.Equal(t, models.MapViewSatellite, out[0].Payload.(MapViewPayload).Mode)
}

func TestDispatchMalformedInput(t *testing.T) {
	d := newTestDispatcher()

	assert.Empty(t, d.Dispatch([]byte("not json")))
	assert.Empty(t, d.Dispatch([]byte(`{"type":"NO_SUCH_TYPE","payload":{}}`)))
	assert.Empty(t, d.Dispatch([]byte(`{"type":"NEW_ALERT","payload":"oops"}`)))
	assert.Empty(t, d.Dispatch([]byte(`{"type":"ACTIVATE_DISASTER","payload":{}}`)))
	assert.Empty(t, d.Dispatch([]byte(`{"type":"SET_MAP_VIEW_MODE","payload":{}}`)))
	assert.Empty(t, d.Dispatch([]byte(`{"type":"LOCATION_UPDATE","payload":{"userId":"u"}}`)))
}

func TestDispatchEvictStaleUsers(t *testing.T) {
	d := newTestDispatcher()
	dispatchJSON(d, TypeLocationUpdate, LocationUpdatePayload{UserID: "u1", Location: "a"})

	out := d.EvictStaleUsers(-time.Second)
	assert.Len(t, out, 1)
	assert.Equal(t, TypeUserEvicted, out[0].Type)
	assert.Equal(t, []string{"u1"}, out[0].Payload.(UserEvictedBroadcast).UserIDs)
	assert.Empty(t, d.Snapshot().ActiveUsers)

	assert.Empty(t, d.EvictStaleUsers(-time.Second))
}

func TestDispatchFullScenario(t *testing.T) {
	d := newTestDispatcher()

	created := dispatchJSON(d, TypeNewAlert, NewAlertPayload{Location: "34.05,-118.24", UserID: "caller"})
	id := created[0].Payload.(*models.Alert).ID

	dispatchJSON(d, TypeAcceptAlert, AlertRefPayload{ID: id})
	dispatchJSON(d, TypeLocationUpdate, LocationUpdatePayload{UserID: "responder", Location: "34.06,-118.25"})
	dispatchJSON(d, TypeResolveAlert, AlertRefPayload{ID: id})

	snap := d.Snapshot()
	assert.Empty(t, snap.Alerts)
	assert.Len(t, snap.History, 1)
	assert.True(t, snap.History[0].Accepted)
	assert.True(t, snap.History[0].Resolved)
	assert.Contains(t, snap.ActiveUsers, "responder")
}

func BenchmarkDispatchNewAlert(b *testing.B) {
	d := newTestDispatcher()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		frame := []byte(fmt.Sprintf(`{"type":"NEW_ALERT","payload":{"location":"loc-%d"}}`, i))
		d.Dispatch(frame)
	}
}
