package client

import (
	"bytes"
	"context"
	"html/template"
	"sync"

	"github.com/pkg/errors"

	"github.com/mlezi/darasa/core/school"
	"github.com/mlezi/darasa/core/user"
	appfs "github.com/mlezi/darasa/fs"
)

// Page names one renderable section.
type Page string

const (
	PageHome        Page = "home"
	PageClasses     Page = "classes"
	PageAssignments Page = "assignments"
	PageEvents      Page = "events"
	PageGallery     Page = "gallery"
)

// viewData is what the page templates render. Exactly one of the role flags
// is set per render, so the partials stay mutually exclusive.
type viewData struct {
	IsGuest   bool
	IsStudent bool
	IsTeacher bool
	IsAdmin   bool
	User      user.User

	Announcements []school.Announcement
	Classes       []school.Class
	Assignments   []school.Assignment
	Events        []school.Event
	Media         []school.MediaItem
}

// ViewController renders page sections from session state and fresh data.
// Every Navigate re-fetches and fully rebuilds the target section; nothing
// is cached between navigations. A failed fetch keeps the previously
// rendered section and surfaces a notice instead.
type ViewController struct {
	session   *Session
	gw        *Gateway
	templates *template.Template

	mutex    sync.RWMutex
	sections map[Page]string
	notice   string
}

func NewViewController(session *Session, gw *Gateway) (*ViewController, error) {
	templates, err := template.ParseFS(appfs.FS, "templates/client/*.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "parsing view templates")
	}
	return &ViewController{
		session:   session,
		gw:        gw,
		templates: templates,
		sections:  make(map[Page]string),
	}, nil
}

// Section returns the last rendered markup for a page; empty until the
// first successful Navigate.
func (vc *ViewController) Section(page Page) string {
	vc.mutex.RLock()
	defer vc.mutex.RUnlock()
	return vc.sections[page]
}

func (vc *ViewController) Notice() string {
	vc.mutex.RLock()
	defer vc.mutex.RUnlock()
	return vc.notice
}

func (vc *ViewController) Navigate(ctx context.Context, page Page) error {
	data := vc.roleData()

	var err error
	switch page {
	case PageHome:
		data.Announcements, err = vc.gw.Announcements(ctx)
	case PageClasses:
		// member-only listing; guests get the login prompt without a fetch
		if !data.IsGuest {
			data.Classes, err = vc.gw.Classes(ctx)
		}
	case PageAssignments:
		if !data.IsGuest {
			data.Assignments, err = vc.gw.Assignments(ctx)
		}
	case PageEvents:
		data.Events, err = vc.gw.Events(ctx)
	case PageGallery:
		data.Media, err = vc.gw.MediaItems(ctx)
	default:
		return errors.Errorf("unknown page %q", page)
	}
	if err != nil {
		if errors.Cause(err) == ErrUnauthorized {
			// the token went stale mid-session
			vc.forceLogout()
			return errors.Wrap(err, "navigating")
		}
		vc.setNotice("could not load " + string(page))
		return errors.Wrap(err, "navigating")
	}

	var buf bytes.Buffer
	if err = vc.templates.ExecuteTemplate(&buf, string(page)+".gohtml", data); err != nil {
		return errors.Wrap(err, "rendering "+string(page))
	}

	vc.mutex.Lock()
	vc.sections[page] = buf.String()
	vc.notice = ""
	vc.mutex.Unlock()
	return nil
}

// roleData partitions the viewer into exactly one of guest, student,
// teacher or admin.
func (vc *ViewController) roleData() viewData {
	data := viewData{User: vc.session.User()}
	switch {
	case vc.session.IsAdmin():
		data.IsAdmin = true
	case vc.session.IsTeacher():
		data.IsTeacher = true
	case vc.session.IsStudent():
		data.IsStudent = true
	default:
		data.IsGuest = true
	}
	return data
}

// forceLogout drops the session and every rendered section back to the
// guest view.
func (vc *ViewController) forceLogout() {
	vc.session.Logout()
	vc.mutex.Lock()
	vc.sections = make(map[Page]string)
	vc.notice = "your session has expired, please log in again"
	vc.mutex.Unlock()
}

func (vc *ViewController) setNotice(notice string) {
	vc.mutex.Lock()
	vc.notice = notice
	vc.mutex.Unlock()
}
