package main

import (
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"multivault/config"
	"multivault/core/types"
	"multivault/native/vault"
	"multivault/observability"
	"multivault/observability/logging"
	"multivault/state/vaultstate"
	"multivault/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup("multivaultd", cfg.Environment)

	params, err := cfg.VaultParams()
	if err != nil {
		logger.Error("invalid vault parameters", "error", err)
		os.Exit(1)
	}

	var db storage.Database
	if cfg.DataDir == "" {
		db = storage.NewMemDB()
	} else {
		ldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			logger.Error("failed to open database", "error", err, "dir", cfg.DataDir)
			os.Exit(1)
		}
		db = ldb
	}
	defer db.Close()

	engine := vault.NewEngine(params, vault.NewRegistry())
	engine.SetState(vaultstate.New(db))
	engine.SetEpochClock(cfg.Clock())
	engine.SetWalletFactory(vault.NewDeterministicWalletFactory(params.Admin, [32]byte{}))
	engine.SetMetrics(observability.Vault())

	server := &viewServer{engine: engine, clock: cfg.Clock()}
	router := chi.NewRouter()
	router.Get("/healthz", server.health)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/v1/epoch", server.epoch)
	router.Get("/v1/costs", server.costs)
	router.Get("/v1/terms/{id}", server.term)
	router.Get("/v1/vaults/{id}/{curve}", server.vault)
	router.Get("/v1/accounts/{addr}/shares/{id}/{curve}", server.shares)
	router.Get("/v1/utilization/{epoch}", server.utilization)

	logger.Info("multivaultd listening", "address", cfg.ListenAddress)
	if err := http.ListenAndServe(cfg.ListenAddress, router); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// viewServer exposes the engine's pure view family over HTTP. Mutations are
// out of scope for the daemon.
type viewServer struct {
	engine *vault.Engine
	clock  vault.EpochClock
}

func (s *viewServer) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *viewServer) epoch(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]uint64{"currentEpoch": s.clock.CurrentEpoch()})
}

func (s *viewServer) costs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"atomCost":   s.engine.AtomCost().String(),
		"tripleCost": s.engine.TripleCost().String(),
	})
}

func (s *viewServer) term(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseTermID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !s.engine.IsTermCreated(id) {
		writeError(w, http.StatusNotFound, errors.New("term does not exist"))
		return
	}
	out := map[string]interface{}{
		"termId":          id.Hex(),
		"isAtom":          s.engine.IsAtom(id),
		"isTriple":        s.engine.IsTriple(id),
		"isCounterTriple": s.engine.IsCounterTriple(id),
	}
	if tripleID, subject, predicate, object, err := s.engine.Triple(id); err == nil {
		out["tripleId"] = tripleID.Hex()
		out["subject"] = subject.Hex()
		out["predicate"] = predicate.Hex()
		out["object"] = object.Hex()
	}
	if data, err := s.engine.AtomData(id); err == nil {
		out["atomData"] = data
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *viewServer) vault(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseTermID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	curveID, err := strconv.ParseUint(chi.URLParam(r, "curve"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	assets, shares := s.engine.VaultTotals(id, curveID)
	price, err := s.engine.CurrentSharePrice(id, curveID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"totalAssets": assets.String(),
		"totalShares": shares.String(),
		"sharePrice":  price.String(),
	})
}

func (s *viewServer) shares(w http.ResponseWriter, r *http.Request) {
	addr, err := types.ParseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := types.ParseTermID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	curveID, err := strconv.ParseUint(chi.URLParam(r, "curve"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"shares":    s.engine.GetShares(addr, id, curveID).String(),
		"maxRedeem": s.engine.MaxRedeem(addr, id, curveID).String(),
	})
}

func (s *viewServer) utilization(w http.ResponseWriter, r *http.Request) {
	epoch, err := strconv.ParseUint(chi.URLParam(r, "epoch"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out := map[string]string{
		"epoch":                   strconv.FormatUint(epoch, 10),
		"globalUtilization":       s.engine.GlobalUtilization(epoch).String(),
		"accumulatedProtocolFees": s.engine.AccumulatedProtocolFees(epoch).String(),
	}
	if addr := r.URL.Query().Get("account"); addr != "" {
		account, err := types.ParseAddress(addr)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		out["personalUtilization"] = s.engine.PersonalUtilization(account, epoch).String()
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
