package completion

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	types "github.com/yungbote/courseledger-backend/internal/domain"
)

var ErrAnswersNotObject = errors.New("answers must be a JSON object")

// LessonDefinition is what auto-completion needs from the catalog.
type LessonDefinition struct {
	ExerciseIDs []string
	HasVideo    bool
}

func DefinitionOf(l *types.Lesson) LessonDefinition {
	if l == nil {
		return LessonDefinition{}
	}
	return LessonDefinition{ExerciseIDs: l.ExerciseIDs(), HasVideo: l.HasVideo()}
}

// MergeLessonAnswers folds incoming into existing. Completed exercises are unioned keeping
// first-seen order, a true video flag is never cleared, and other keys take the incoming value.
// Malformed existing answers are treated as empty; malformed incoming answers are an error.
func MergeLessonAnswers(existing, incoming []byte) ([]byte, types.LessonAnswers, error) {
	prev := decodeObject(existing)
	next := map[string]json.RawMessage{}
	if raw := bytes.TrimSpace(incoming); len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &next); err != nil {
			return nil, types.LessonAnswers{}, ErrAnswersNotObject
		}
	}

	merged := make(map[string]json.RawMessage, len(prev)+len(next))
	for k, v := range prev {
		merged[k] = v
	}
	for k, v := range next {
		merged[k] = v
	}

	exercises := unionIDs(decodeIDs(prev[types.AnswersKeyCompletedExercises]), decodeIDs(next[types.AnswersKeyCompletedExercises]))
	watched := decodeBool(prev[types.AnswersKeyVideoWatched]) || decodeBool(next[types.AnswersKeyVideoWatched])

	exRaw, _ := json.Marshal(exercises)
	merged[types.AnswersKeyCompletedExercises] = exRaw
	merged[types.AnswersKeyVideoWatched] = json.RawMessage(boolJSON(watched))

	out, err := json.Marshal(merged)
	if err != nil {
		return nil, types.LessonAnswers{}, err
	}
	return out, types.LessonAnswers{CompletedExercises: exercises, VideoWatched: watched}, nil
}

// LessonComplete reports whether the merged answers satisfy the lesson definition.
// A lesson with neither exercises nor a video never completes on its own.
func LessonComplete(def LessonDefinition, answers types.LessonAnswers) bool {
	if len(def.ExerciseIDs) == 0 && !def.HasVideo {
		return false
	}
	done := make(map[string]struct{}, len(answers.CompletedExercises))
	for _, id := range answers.CompletedExercises {
		done[id] = struct{}{}
	}
	for _, id := range def.ExerciseIDs {
		if _, ok := done[id]; !ok {
			return false
		}
	}
	if def.HasVideo && !answers.VideoWatched {
		return false
	}
	return true
}

// ValidAnswersObject reports whether raw is absent or a JSON object.
func ValidAnswersObject(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return true
	}
	var obj map[string]json.RawMessage
	return json.Unmarshal(raw, &obj) == nil
}

func decodeObject(raw []byte) map[string]json.RawMessage {
	out := map[string]json.RawMessage{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]json.RawMessage{}
	}
	return out
}

func decodeIDs(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		id := strings.TrimSpace(string(item))
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			id = strings.TrimSpace(s)
		}
		if id != "" && id != "null" {
			out = append(out, id)
		}
	}
	return out
}

func decodeBool(raw json.RawMessage) bool {
	var b bool
	if len(raw) == 0 || json.Unmarshal(raw, &b) != nil {
		return false
	}
	return b
}

func unionIDs(prev, next []string) []string {
	seen := make(map[string]struct{}, len(prev)+len(next))
	out := make([]string, 0, len(prev)+len(next))
	for _, list := range [][]string{prev, next} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func boolJSON(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
