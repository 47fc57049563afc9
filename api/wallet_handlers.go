package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/veilledger/veil/models"
	"github.com/veilledger/veil/wallet"
)

func (g *Gateway) handleGETTxos(w http.ResponseWriter, r *http.Request) {
	filter := models.TxoFilter{
		Owner: r.URL.Query().Get("owner"),
	}
	if unspent := r.URL.Query().Get("unspent"); unspent != "" {
		b, err := strconv.ParseBool(unspent)
		if err != nil {
			http.Error(w, wrapError(err), http.StatusBadRequest)
			return
		}
		filter.UnspentOnly = b
	}

	txos, err := g.wallet.ListTxos(filter)
	if err != nil {
		http.Error(w, wrapError(err), http.StatusInternalServerError)
		return
	}
	sanitizedJSONResponse(w, txos)
}

func (g *Gateway) handleGETTransaction(w http.ResponseWriter, r *http.Request) {
	txID := mux.Vars(r)["txID"]

	record, err := g.wallet.Transaction(txID)
	if err == wallet.ErrTxNotFound {
		http.Error(w, wrapError(err), http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, wrapError(err), http.StatusInternalServerError)
		return
	}
	sanitizedJSONResponse(w, record)
}

func (g *Gateway) handlePOSTSubmit(w http.ResponseWriter, r *http.Request) {
	txID := mux.Vars(r)["txID"]

	status, err := g.wallet.Submit(r.Context(), txID)
	if err == wallet.ErrTxNotFound {
		http.Error(w, wrapError(err), http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, wrapError(err), http.StatusInternalServerError)
		return
	}
	sanitizedJSONResponse(w, status)
}

func (g *Gateway) handleGETAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := g.wallet.Assets()
	if err != nil {
		http.Error(w, wrapError(err), http.StatusInternalServerError)
		return
	}
	sanitizedJSONResponse(w, assets)
}

func (g *Gateway) handleGETIdentities(w http.ResponseWriter, r *http.Request) {
	identities, err := g.wallet.Identities()
	if err != nil {
		http.Error(w, wrapError(err), http.StatusInternalServerError)
		return
	}
	sanitizedJSONResponse(w, identities)
}
