package view

import (
	"github.com/soocke/annotator-go/ui/presenter"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

func showError(title, message string) {
	MessageBox(Icon("error"), Title(title), Msg(message), Type("ok"))
}

func askYesNo(title, message string) bool {
	return MessageBox(Icon("question"), Title(title), Msg(message), Type("yesno")) == "yes"
}

func askSave(title, message string) presenter.SaveChoice {
	switch MessageBox(Icon("warning"), Title(title), Msg(message), Type("yesnocancel")) {
	case "yes":
		return presenter.SaveYes
	case "no":
		return presenter.SaveNo
	default:
		return presenter.SaveCancel
	}
}
