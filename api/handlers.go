package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/kostiamol/offsetms/calib"
)

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	if ok, err := a.checker.Check(); !ok || err != nil {
		a.log.Warnf("func health: store is unavailable: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte(`{"status":"unavailable"}`)); err != nil {
			a.log.Errorf("func Write: %s", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
		a.log.Errorf("func Write: %s", err)
	}
}

func (a *API) getRoomsHandler(w http.ResponseWriter, r *http.Request) {
	rooms := a.scheduler.Rooms()
	resp(w, a.log, http.StatusOK, rooms, map[string]interface{}{"count": len(rooms)})
}

func (a *API) postCycleHandler(w http.ResponseWriter, r *http.Request) {
	if sub := subject(r.Context()); sub != "" {
		a.log.Infof("cycle requested by %s", sub)
	}

	outcomes := a.scheduler.RunNow(r.Context())
	if outcomes == nil {
		outcomes = []calib.Outcome{}
	}

	meta := map[string]interface{}{
		string(calib.StatusSuccess): 0,
		string(calib.StatusSkipped): 0,
		string(calib.StatusFailed):  0,
	}
	for _, o := range outcomes {
		meta[string(o.Status)] = meta[string(o.Status)].(int) + 1
	}
	resp(w, a.log, http.StatusOK, outcomes, meta)
}

func (a *API) getOffsetHandler(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]
	t, err := calib.ParseThermostatRef(ref)
	if err != nil {
		respError(w, a.log, newBadParamError(err.Error()))
		return
	}

	res, err := a.device.GetParamset(r.Context(), t.Group, &calib.ParamsetRequest{
		ID:        calib.OffsetChannel(t.ID),
		ParamType: calib.ParamsetMaster,
	})
	if err != nil {
		a.log.Errorf("func getOffsetHandler: func GetParamset: %s", err)
		respError(w, a.log, newDeviceError("device layer is unavailable"))
		return
	}
	if res.Failed() {
		respError(w, a.log, newDeviceError((&calib.DeviceError{Payload: res.Error}).Error()))
		return
	}

	params, ok := res.Result.(map[string]interface{})
	if !ok {
		respError(w, a.log, newNotFoundError())
		return
	}
	v, ok := params[calib.ParamTempOffset]
	if !ok {
		respError(w, a.log, newNotFoundError())
		return
	}

	resp(w, a.log, http.StatusOK, map[string]interface{}{
		"thermostat": ref,
		"offset":     v,
	}, nil)
}
