package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"pricebook-recon/internal/config"
	"pricebook-recon/internal/fileio"
	"pricebook-recon/internal/reconcile/model"
	recSvc "pricebook-recon/internal/reconcile/service"
)

// reviewResponse is the review_only=1 body.
type reviewResponse struct {
	OldID           string              `json:"old_id"`
	NewID           string              `json:"new_id"`
	ReviewThreshold float64             `json:"review_threshold"`
	ReviewQueue     []model.MatchResult `json:"review_queue"`
}

// Diff возвращает http.HandlerFunc для r.Post("/diff", recHnd.Diff(cfg, logger)).
// Multipart: fileOld, fileNew; опции diff берутся из полей формы поверх cfg.Diff.
func Diff(cfg config.Config, logger zerolog.Logger) http.HandlerFunc {
	maxMem := int64(cfg.Server.MaxUploadMB) << 20
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// логгер с rid из middleware, если он есть
		log := zerolog.Ctx(r.Context())
		if log.GetLevel() == zerolog.Disabled {
			log = &logger
		}

		defer r.Body.Close()
		if err := r.ParseMultipartForm(maxMem); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
				return
			}
			writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
			return
		}
		if r.MultipartForm != nil {
			defer r.MultipartForm.RemoveAll()
		}

		headerRow := atoi(r.FormValue("header_row"), 1)
		oldSnap, err := readUpload(r, "fileOld", headerRow)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		newSnap, err := readUpload(r, "fileNew", headerRow)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		opt, err := model.OptionsFromMap(formOptions(r, cfg.Diff))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := recSvc.CreateDiff(oldSnap, newSnap, opt, recSvc.WithLogger(*log))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if toBool(r.FormValue("review_only"), false) {
			// review_levels=low,very_low&review_methods=fuzzy&review_max_confidence=0.5
			f, err := model.NewReviewFilter(
				splitList(r.FormValue("review_levels")),
				splitList(r.FormValue("review_methods")),
				toFloat(r.FormValue("review_max_confidence"), 0),
			)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeJSON(w, log, http.StatusOK, reviewResponse{
				OldID:           res.OldID,
				NewID:           res.NewID,
				ReviewThreshold: res.ReviewThreshold,
				ReviewQueue:     res.FilterReviewQueue(f),
			})
		} else {
			if types, err := changeTypes(r.FormValue("types")); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			} else if len(types) > 0 {
				res.Changes = res.FilterChanges(types...)
			}
			writeJSON(w, log, http.StatusOK, res)
		}

		log.Info().
			Str("old_id", res.OldID).
			Str("new_id", res.NewID).
			Int("old_items", len(oldSnap.Items)).
			Int("new_items", len(newSnap.Items)).
			Int("changes", res.Summary["total_changes"]).
			Int("review_queue", res.Summary["review_queue"]).
			Dur("elapsed", time.Since(start)).
			Msg("diff done")
	}
}

func readUpload(r *http.Request, field string, headerRow int) (model.Snapshot, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return model.Snapshot{}, errors.New("missing " + field + ": " + err.Error())
	}
	defer func(f multipart.File) { _ = f.Close() }(f)
	return fileio.ReadSnapshot(f, hdr.Filename, headerRow)
}
