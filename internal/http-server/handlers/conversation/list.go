package conversation

import (
	"ZapDesk/entity"
	"ZapDesk/internal/lib/api/response"
	"ZapDesk/internal/lib/sl"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.conversation")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		filters := filtersFromQuery(r)

		page, err := handler.ListConversations(r.Context(), filters)
		if err != nil {
			logger.Error("failed to list conversations", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to list conversations"))
			return
		}

		logger.Debug("conversations listed",
			slog.Int("count", len(page.Conversations)),
			slog.Int("total", page.TotalCount),
		)
		render.JSON(w, r, response.Ok(page))
	}
}

func filtersFromQuery(r *http.Request) entity.ConversationFilters {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	return entity.ConversationFilters{
		InstanceID: q.Get("instance_id"),
		Status:     q.Get("status"),
		AssignedTo: q.Get("assigned_to"),
		Unassigned: q.Get("unassigned") == "true",
		Search:     q.Get("search"),
		Page:       page,
		PageSize:   pageSize,
	}
}

// Messages opens a conversation: the unread badge resets and the full
// thread comes back ordered oldest first.
func Messages(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.conversation")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chiURLParam(r, "id")
		if id == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Conversation id is required"))
			return
		}

		messages, err := handler.OpenConversation(r.Context(), id)
		if err != nil {
			logger.Error("failed to open conversation", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to open conversation"))
			return
		}

		render.JSON(w, r, response.Ok(messages))
	}
}

func decodeBody(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
