package dialogue

import (
	"strings"

	"github.com/museumops/curio/internal/curio/intent"
)

// ackWords may make up an acknowledgment on their own.
var ackWords = map[string]bool{
	"thanks": true, "thank": true, "you": true, "thx": true, "ty": true,
	"much": true, "so": true, "very": true,
	"ok": true, "okay": true, "k": true, "great": true, "cool": true,
	"nice": true, "awesome": true, "perfect": true, "got": true, "it": true,
	"alright": true, "all": true, "right": true, "sounds": true, "good": true,
	"yes": true, "yeah": true, "yep": true, "yup": true, "y": true, "sure": true,
	"no": true, "nope": true, "nah": true, "n": true,
}

// ackHeads are the words an acknowledgment must start with, so that fillers
// like "all" or "it" never count on their own.
var ackHeads = map[string]bool{
	"thanks": true, "thank": true, "thx": true, "ty": true,
	"ok": true, "okay": true, "k": true, "great": true, "cool": true,
	"nice": true, "awesome": true, "perfect": true, "got": true,
	"alright": true, "sounds": true,
	"yes": true, "yeah": true, "yep": true, "yup": true, "y": true, "sure": true,
	"no": true, "nope": true, "nah": true, "n": true,
}

var gratitude = map[string]bool{"thanks": true, "thank": true, "thx": true, "ty": true}

// isAcknowledgment reports whether w is a short acknowledgment or a bare
// yes/no variant.
func isAcknowledgment(w intent.Words) bool {
	list := w.List()
	if len(list) == 0 || len(list) > 4 || !ackHeads[list[0]] {
		return false
	}
	return w.Only(ackWords)
}

func isGratitude(w intent.Words) bool {
	for _, x := range w.List() {
		if gratitude[x] {
			return true
		}
	}
	return false
}

var cancelPhrases = map[string]bool{
	"stop": true, "quit": true, "never mind": true, "nevermind": true,
	"forget it": true, "cancel": true, "abort": true,
}

// isCancel reports whether the turn asks to abandon the current flow.
func isCancel(w intent.Words) bool {
	if w.Has("cancel", "abort") {
		return true
	}
	return cancelPhrases[strings.Join(w.List(), " ")]
}

var menuPhrases = map[string]bool{
	"menu": true, "show menu": true, "reports menu": true, "report menu": true,
	"main menu": true, "options": true,
}

func isMenu(w intent.Words) bool {
	return menuPhrases[strings.Join(w.List(), " ")]
}

var (
	modeAllWords    = []string{"all", "complete", "everything"}
	modeMonthWords  = []string{"month", "recent", "last"}
	modeCustomWords = []string{"custom", "specific", "range"}
	wholeYearWords  = []string{"entire", "whole", "full", "year", "all"}
)
