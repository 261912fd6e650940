package api

import (
	"encoding/json"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cutline/cutline-agent/internal/export"
)

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.Format != "" && strings.ToLower(req.Format) != "edl" {
			WriteError(w, http.StatusBadRequest, "format must be edl", "BAD_REQUEST")
			return
		}

		if req.SectorID == "" || req.TrackID == "" {
			WriteError(w, http.StatusBadRequest, "sector_id and track_id are required", "BAD_REQUEST")
			return
		}

		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		tracks, err := cfg.LibraryService.GetTracks(r.Context(), req.SectorID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		var clips []export.ResolvedClip
		found := false
		trackName := ""
		for _, track := range tracks {
			if track.ID != req.TrackID {
				continue
			}
			found = true
			trackName = track.Name
			for _, clip := range track.Clips {
				name := export.SanitizeName(clip.Name, 160)
				if name == "" {
					name = clip.ID
				}
				clips = append(clips, export.ResolvedClip{
					ClipName:      name,
					MediaPath:     clip.Path,
					RecordStartMs: int(math.Round(clip.Start() * 1000)),
					RecordEndMs:   int(math.Round(clip.End() * 1000)),
				})
			}
			break
		}

		if !found {
			WriteError(w, http.StatusNotFound, "track not found", "NOT_FOUND")
			return
		}
		if len(clips) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "track has no clips", "EMPTY_TRACK")
			return
		}

		projectName := export.SanitizeName(req.ProjectName, 120)
		if projectName == "" {
			projectName = export.SanitizeName(trackName, 120)
		}
		if projectName == "" {
			projectName = "cutline_export"
		}

		frameRate := req.FrameRate
		if frameRate <= 0 {
			frameRate = 30.0
		}

		edl := export.GenerateEDL(clips, projectName, frameRate)
		outputPath := filepath.Join(req.OutputDir, projectName+".edl")
		if err := os.WriteFile(outputPath, []byte(edl), 0o644); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, export.ExportResponse{
			Status:     "ok",
			Format:     "edl",
			OutputPath: outputPath,
			ClipCount:  len(clips),
		})
	}
}
