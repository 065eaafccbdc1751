package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"controlhub/internal/models"
	"controlhub/internal/services"
)

type DocumentHandler struct {
	Service *services.DocumentService
}

// maxUploadSize caps a single document upload at 10 MB.
const maxUploadSize = 10 << 20

func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}
	docType := r.FormValue("type")
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc, err := h.Service.UploadDocument(r.Context(), userID, title, docType, header.Filename, contentType, data)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDocumentLimit):
			http.Error(w, "Max limit reached", http.StatusForbidden)
		case errors.Is(err, models.ErrNoCredits):
			http.Error(w, "No remaining credits", http.StatusForbidden)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(doc)
}

func (h *DocumentHandler) CheckUploadLimit(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	resp, err := h.Service.CheckUploadAllowed(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *DocumentHandler) GetMyDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	docs, err := h.Service.GetDocumentsByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(docs)
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	docs, err := h.Service.GetDocuments(r.Context(), status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(docs)
}

func (h *DocumentHandler) UpdateDocumentStatus(w http.ResponseWriter, r *http.Request) {
	docID := getParam(r, "id")
	if docID == "" {
		http.Error(w, "Missing document ID", http.StatusBadRequest)
		return
	}

	var req models.DocumentStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := h.Service.UpdateStatus(r.Context(), docID, req.Status, req.RejectReason)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidStatus):
			http.Error(w, "Status must be approved or rejected", http.StatusBadRequest)
		case errors.Is(err, models.ErrDocumentNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}
