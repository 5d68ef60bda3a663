package argo

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/dende197/g-connect-backend/internal/models"
)

// Grade categories in priority order. The dashboard is asked for all of
// them at once because the provider silently omits the ones that don't
// apply instead of erroring; in practice they are mutually exclusive, so
// the first non-empty one wins and no merge is needed.
var gradeCategories = []string{"votiGiornalieri", "voti", "votiScrutinio", "votiPeriodici"}

var gradeCategoryPaths = map[string]string{
	"votiGiornalieri": "votigiornalieri",
	"voti":            "voti",
	"votiScrutinio":   "votiscrutinio",
	"votiPeriodici":   "votiperiodici",
}

var dashboardRequest = map[string]interface{}{
	"opzioni": map[string]bool{
		"intestazione":    true,
		"votiGiornalieri": true,
		"voti":            true,
		"votiScrutinio":   true,
		"votiPeriodici":   true,
		"registro":        true,
		"bachecaAlunno":   true,
		"promemoria":      true,
	},
}

func (c *Client) fetchDashboard(ctx context.Context, headers http.Header) (map[string]interface{}, error) {
	var decoded map[string]interface{}
	var err error
	for _, base := range []string{c.opts.APIBase, c.opts.APIBaseLegacy} {
		decoded, err = c.apiJSON(ctx, http.MethodPost, base+"dashboard/dashboard", headers, dashboardRequest, c.opts.DashboardTimeout)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	if data := asMap(decoded["data"]); data != nil {
		return data, nil
	}
	return decoded, nil
}

// Grades fetches the selected profile's marks. Dashboard first; if it
// yields nothing, direct per-category endpoints. Failures degrade to an
// empty list, never to the caller.
func (c *Client) Grades(ctx context.Context, headers http.Header) []models.Grade {
	dash, err := c.fetchDashboard(ctx, headers)
	if err == nil {
		for _, category := range gradeCategories {
			if list := asSlice(dash[category]); len(list) > 0 {
				return mapGrades(list)
			}
		}
	} else {
		log.Printf("argo: grades dashboard fetch failed: %v", err)
	}

	for _, category := range gradeCategories {
		for _, base := range []string{c.opts.APIBase, c.opts.APIBaseLegacy} {
			decoded, err := c.apiJSON(ctx, http.MethodGet, base+gradeCategoryPaths[category], headers, nil, c.opts.ProbeTimeout)
			if err != nil {
				continue
			}
			list := asSlice(decoded["data"])
			if len(list) == 0 {
				list = asSlice(decoded[category])
			}
			if len(list) > 0 {
				return mapGrades(list)
			}
		}
	}
	return []models.Grade{}
}

func mapGrades(list []interface{}) []models.Grade {
	grades := make([]models.Grade, 0, len(list))
	for _, item := range list {
		record := asMap(item)
		if record == nil {
			continue
		}
		materia := str(record, "desMateria", "materia")
		if materia == "" {
			materia = "N/D"
		}
		valore := scalar(record, "codVoto", "voto", "valore")
		data := scalar(record, "datGiorno", "data")
		tipo := str(record, "desVoto", "tipo")
		if tipo == "" {
			tipo = "N/D"
		}
		grades = append(grades, models.Grade{
			ID:      newRecordID(),
			Materia: materia,
			Valore:  valore,
			Data:    data,
			Tipo:    tipo,
			Subject: materia,
			Value:   valore,
			Date:    data,
		})
	}
	return grades
}

// Tasks derives homework from the dashboard's nested per-lesson register
// entries. An item's subject comes from its owning lesson; there is no
// explicit foreign key, only positional containment. Output is grouped
// by due date in first-seen order, matching the downstream display.
func (c *Client) Tasks(ctx context.Context, headers http.Header) []models.Task {
	dash, err := c.fetchDashboard(ctx, headers)
	if err != nil {
		log.Printf("argo: tasks dashboard fetch failed: %v", err)
		return []models.Task{}
	}

	var order []string
	byDate := map[string][]models.Task{}
	for _, entry := range asSlice(dash["registro"]) {
		lesson := asMap(entry)
		if lesson == nil {
			continue
		}
		materia := str(lesson, "materia", "desMateria")
		if materia == "" {
			materia = "Generico"
		}
		lessonDate := scalar(lesson, "data", "datGiorno")
		for _, item := range asSlice(lesson["compiti"]) {
			compito := asMap(item)
			if compito == nil {
				continue
			}
			due := scalar(compito, "datCompito")
			if due == "" {
				due = lessonDate
			}
			task := models.Task{
				ID:         newRecordID(),
				Text:       str(compito, "desCompito", "compito"),
				Subject:    materia,
				DueDate:    due,
				DatCompito: due,
				Materia:    materia,
				Done:       false,
			}
			if _, seen := byDate[due]; !seen {
				order = append(order, due)
			}
			byDate[due] = append(byDate[due], task)
		}
	}

	tasks := make([]models.Task, 0)
	for _, due := range order {
		tasks = append(tasks, byDate[due]...)
	}
	return tasks
}

// Announcements unions the bulletin-board items and the generic
// reminders. The two lists may overlap; upstream offers no stable
// identifier to de-duplicate on, so none is attempted.
func (c *Client) Announcements(ctx context.Context, headers http.Header) []models.Announcement {
	dash, err := c.fetchDashboard(ctx, headers)
	if err != nil {
		log.Printf("argo: announcements dashboard fetch failed: %v", err)
		return []models.Announcement{}
	}

	items := make([]models.Announcement, 0)
	for _, key := range []string{"bachecaAlunno", "promemoria"} {
		for _, raw := range asSlice(dash[key]) {
			record := asMap(raw)
			if record == nil {
				continue
			}
			titolo := str(record, "desOggetto", "titolo")
			if titolo == "" {
				titolo = "Avviso"
			}
			autore := str(record, "desMittente", "autore")
			if autore == "" {
				autore = "Scuola"
			}
			items = append(items, models.Announcement{
				ID:      newRecordID(),
				Titolo:  titolo,
				Testo:   str(record, "desMessaggio", "testo"),
				Autore:  autore,
				Data:    scalar(record, "datGiorno", "data"),
				URL:     str(record, "urlAllegato", "url"),
				Oggetto: titolo,
			})
		}
	}
	return items
}

func newRecordID() string {
	return uuid.NewString()[:12]
}
