package local

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/phnplatform/studyterm/internal/backend"
)

// Course is an offline course definition loaded from YAML.
//
//	id: go-basics
//	title: Go Basics
//	sections:
//	  - id: s1
//	    title: Getting started
//	    content:
//	      - id: v1
//	        title: Welcome
//	        type: video
//	        video_url: ./media/welcome.mp4
//	      - id: q1
//	        title: Check yourself
//	        type: quiz
//	        locked: true
//	        quiz:
//	          passing_score: 70
//	          questions: [...]
type Course struct {
	ID       string          `yaml:"id"`
	Title    string          `yaml:"title"`
	Sections []courseSection `yaml:"sections"`

	order []*courseItem
	byID  map[string]*courseItem
}

type courseSection struct {
	ID    string        `yaml:"id"`
	Title string        `yaml:"title"`
	Items []*courseItem `yaml:"content"`
}

type courseItem struct {
	ID       string              `yaml:"id"`
	Title    string              `yaml:"title"`
	Kind     backend.ContentKind `yaml:"type"`
	Body     string              `yaml:"body"`
	VideoURL string              `yaml:"video_url"`
	Duration string              `yaml:"duration"`
	// Locked items open once the item before them in course order is complete.
	Locked bool                    `yaml:"locked"`
	Quiz   *backend.QuizDefinition `yaml:"quiz"`

	index int
}

// LoadCourse reads and indexes a course file.
func LoadCourse(path string) (*Course, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read course file: %w", err)
	}
	return ParseCourse(raw)
}

// ParseCourse decodes a YAML course definition.
func ParseCourse(raw []byte) (*Course, error) {
	var c Course
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse course: %w", err)
	}
	if c.ID == "" {
		return nil, fmt.Errorf("parse course: missing id")
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Course) index() error {
	c.byID = make(map[string]*courseItem)
	c.order = nil
	for si := range c.Sections {
		s := &c.Sections[si]
		if s.ID == "" {
			s.ID = fmt.Sprintf("section-%d", si+1)
		}
		for _, it := range s.Items {
			if it.ID == "" {
				return fmt.Errorf("course %s: item %q in section %s has no id", c.ID, it.Title, s.ID)
			}
			if _, dup := c.byID[it.ID]; dup {
				return fmt.Errorf("course %s: duplicate item id %q", c.ID, it.ID)
			}
			if it.Kind == "" {
				it.Kind = backend.KindDocument
			}
			if it.Kind == backend.KindQuiz && it.Quiz == nil {
				return fmt.Errorf("course %s: quiz item %q has no questions", c.ID, it.ID)
			}
			it.index = len(c.order)
			c.order = append(c.order, it)
			c.byID[it.ID] = it
		}
	}
	return nil
}

func (c *Course) item(courseID, id string) (*courseItem, error) {
	if courseID != c.ID {
		return nil, fmt.Errorf("course %q: %w", courseID, backend.ErrNotFound)
	}
	it, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("content %q: %w", id, backend.ErrNotFound)
	}
	return it, nil
}

// sections renders the navigation tree with completion and lock state
// resolved against done.
func (c *Course) sections(done map[string]bool) []backend.Section {
	out := make([]backend.Section, 0, len(c.Sections))
	for _, s := range c.Sections {
		sec := backend.Section{ID: s.ID, Title: s.Title, Items: make([]backend.ContentItem, 0, len(s.Items))}
		for _, it := range s.Items {
			sec.Items = append(sec.Items, backend.ContentItem{
				ID:        it.ID,
				Title:     it.Title,
				Kind:      it.Kind,
				Completed: done[it.ID],
				Locked:    c.locked(it, done),
			})
		}
		out = append(out, sec)
	}
	return out
}

func (c *Course) locked(it *courseItem, done map[string]bool) bool {
	if !it.Locked || it.index == 0 {
		return false
	}
	return !done[c.order[it.index-1].ID]
}

func (c *Course) content(it *courseItem) *backend.Content {
	out := &backend.Content{
		ID:       it.ID,
		Title:    it.Title,
		Kind:     it.Kind,
		Body:     it.Body,
		VideoURL: it.VideoURL,
		Duration: it.Duration,
	}
	if it.index > 0 {
		out.PreviousID = c.order[it.index-1].ID
	}
	if it.index+1 < len(c.order) {
		out.NextID = c.order[it.index+1].ID
	}
	return out
}

func (c *Course) quiz(it *courseItem) *backend.QuizDefinition {
	def := *it.Quiz
	if def.ID == "" {
		def.ID = it.ID
	}
	if def.Title == "" {
		def.Title = it.Title
	}
	return &def
}
