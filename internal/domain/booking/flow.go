package booking

import (
	"fmt"
	"strings"

	"booking-runner/internal/domain/entity"
)

// FlowConfig carries the target-site knobs for compiled booking scripts.
type FlowConfig struct {
	BaseURL        string
	DefaultReferer string
	DryRun         bool // fill everything, never press the final submit
}

func DefaultFlowConfig() FlowConfig {
	return FlowConfig{
		BaseURL:        "https://rione.fidy.app/prenew.php",
		DefaultReferer: "AI",
		DryRun:         true,
	}
}

// BookingURL appends the tracking referer to the base URL.
func (c FlowConfig) BookingURL(referer string) string {
	r := strings.TrimSpace(referer)
	if r == "" {
		r = c.DefaultReferer
	}
	if strings.Contains(c.BaseURL, "?") {
		return fmt.Sprintf("%s&referer=%s", c.BaseURL, r)
	}
	return fmt.Sprintf("%s?referer=%s", c.BaseURL, r)
}

// setDateJS clicks the quick-pick button for the date when the site
// offers one, and falls back to the date input otherwise.
const setDateJS = `() => {
	const iso = %q;
	const btn = document.querySelector('.dataBtn[rel="' + iso + '"]');
	if (btn) { btn.click(); return 'button'; }
	const inp = document.querySelector('#DataPren');
	if (!inp) { throw new Error('no date control'); }
	inp.value = iso;
	inp.dispatchEvent(new Event('change', { bubbles: true }));
	return 'input';
}`

// Compile turns a validated booking into the step script that drives the
// reservation wizard. The step order mirrors the wizard pages: guests,
// high chairs, date, meal type, venue, time slot, note, contact details,
// submit.
func Compile(n *Normalized, cfg FlowConfig) []entity.Step {
	iso := n.Date.Format("2006-01-02")

	steps := []entity.Step{
		{Kind: entity.StepNavigate, Name: "open", Value: cfg.BookingURL(n.Referer)},
		{Kind: entity.StepWaitVisible, Name: "wizard_ready", Selector: ".stepCont"},
		{Kind: entity.StepClick, Name: "guests", Selector: fmt.Sprintf(`.nCoperti[rel="%d"]`, n.Guests)},
	}

	if n.HighChairs > 0 {
		steps = append(steps,
			entity.Step{Kind: entity.StepWaitVisible, Name: "high_chairs_prompt", Selector: ".seggioliniTxt"},
			entity.Step{Kind: entity.StepClick, Name: "high_chairs_yes", Selector: ".seggioliniTxt"},
			entity.Step{Kind: entity.StepClick, Name: "high_chairs_count", Selector: fmt.Sprintf(`.nSeggiolini[rel="%d"]`, n.HighChairs)},
		)
	}

	steps = append(steps,
		entity.Step{Kind: entity.StepEval, Name: "date", Value: fmt.Sprintf(setDateJS, iso)},
		entity.Step{Kind: entity.StepClick, Name: "meal_type", Selector: fmt.Sprintf(`.tipoBtn[rel="%s"]`, n.MealType)},
		entity.Step{Kind: entity.StepWaitVisible, Name: "venues_loaded", Selector: ".ristoCont"},
		entity.Step{Kind: entity.StepClickText, Name: "venue", Selector: ".ristoCont *", Value: n.Venue},
		entity.Step{Kind: entity.StepWaitVisible, Name: "slots_visible", Selector: "#OraPren"},
		entity.Step{Kind: entity.StepSelect, Name: "time_slot", Selector: "#OraPren", Value: n.TimeHHMM},
	)

	if n.Note != "" {
		steps = append(steps, entity.Step{Kind: entity.StepFill, Name: "note", Selector: "#Nota", Value: n.Note})
	}

	steps = append(steps,
		entity.Step{Kind: entity.StepClick, Name: "confirm_details", Selector: ".confDati"},
		entity.Step{Kind: entity.StepWaitVisible, Name: "contact_form", Selector: "#Nome"},
		entity.Step{Kind: entity.StepFill, Name: "first_name", Selector: "#Nome", Value: n.FirstName},
		entity.Step{Kind: entity.StepFill, Name: "last_name", Selector: "#Cognome", Value: n.LastName},
		entity.Step{Kind: entity.StepFill, Name: "email", Selector: "#Email", Value: n.Email},
		entity.Step{Kind: entity.StepFill, Name: "phone", Selector: "#Telefono", Value: n.PhoneForm},
	)

	if !cfg.DryRun {
		steps = append(steps,
			entity.Step{Kind: entity.StepClick, Name: "submit", Selector: `input[type="submit"][value="PRENOTA"]`},
			entity.Step{Kind: entity.StepWaitGone, Name: "submitted", Selector: "#Nome"},
			entity.Step{Kind: entity.StepExtractText, Name: "confirmation", Selector: ".stepCont"},
		)
	}

	return steps
}
