// Package todos is the in-memory task list behind the dashboard's todo
// screen. Tasks live for the process lifetime only; nothing is persisted and
// no API is involved.
package todos

import (
	"sync"

	"github.com/pkg/errors"
)

var TaskNotFoundErr = errors.New("task not found")

// Task is a single todo entry.
type Task struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// List is a mutex-guarded task list.
type List struct {
	lock   sync.RWMutex
	tasks  []Task
	nextID int
}

func NewList() *List {
	return &List{nextID: 1}
}

// Add appends a new, uncompleted task and returns it.
func (l *List) Add(name string) Task {
	l.lock.Lock()
	defer l.lock.Unlock()

	task := Task{ID: l.nextID, Name: name}
	l.nextID++
	l.tasks = append(l.tasks, task)
	return task
}

// Delete removes the task with the given ID.
func (l *List) Delete(id int) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	for i, task := range l.tasks {
		if task.ID == id {
			l.tasks = append(l.tasks[:i], l.tasks[i+1:]...)
			return nil
		}
	}
	return TaskNotFoundErr
}

// Toggle flips the completion flag of the task with the given ID.
func (l *List) Toggle(id int) (Task, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	for i := range l.tasks {
		if l.tasks[i].ID == id {
			l.tasks[i].Completed = !l.tasks[i].Completed
			return l.tasks[i], nil
		}
	}
	return Task{}, TaskNotFoundErr
}

// Tasks returns a snapshot of the list in insertion order.
func (l *List) Tasks() []Task {
	l.lock.RLock()
	defer l.lock.RUnlock()

	out := make([]Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}
