// SPDX-License-Identifier: GPL-2.0-or-later

package cvar

import (
	"cmp"
	"log"
	"slices"
	"strconv"

	"github.com/pkg/errors"

	"gochoreo/conlog"
)

var (
	cvarArray  []*Cvar
	cvarByName = make(map[string]*Cvar)

	ErrUnknown = errors.New("unknown variable")
	ErrExists  = errors.New("variable already defined")
)

type flag uint64

const (
	// cvar flags bitfield
	NONE    flag = 0
	ARCHIVE flag = 1
	NOTIFY  flag = 1 << 1
	ROM     flag = 1 << 6
)

type CallbackFunc func(cv *Cvar)

type Cvar struct {
	archive  bool
	notify   bool
	rom      bool
	user     bool
	callback CallbackFunc
	name     string
	// stringValue is the truth, value the derived one
	stringValue  string
	value        float32
	defaultValue string
	id           int
}

func All() []*Cvar {
	return cvarArray
}

func (cv *Cvar) Archive() bool {
	return cv.archive
}

func (cv *Cvar) Notify() bool {
	return cv.notify
}

func (cv *Cvar) UserDefined() bool {
	return cv.user
}

// SetCallback installs a function called after every change. It is
// called once right away so derived state starts in sync.
func (cv *Cvar) SetCallback(cb CallbackFunc) {
	cv.callback = cb
	if cb != nil {
		cb(cv)
	}
}

func (cv *Cvar) SetByString(s string) {
	if cv.rom {
		return
	}
	old := cv.stringValue
	cv.stringValue = s
	pf, _ := strconv.ParseFloat(cv.stringValue, 32)
	cv.value = float32(pf)
	if cv.notify && old != s {
		conlog.Printf("\"%s\" changed to \"%s\"\n", cv.name, s)
	}
	if cv.callback != nil {
		cv.callback(cv)
	}
}

func (cv *Cvar) Reset() {
	cv.SetByString(cv.defaultValue)
}

func (cv *Cvar) String() string {
	return cv.stringValue
}

func (cv *Cvar) Default() string {
	return cv.defaultValue
}

func (cv *Cvar) ID() int {
	return cv.id
}

func (cv *Cvar) Name() string {
	return cv.name
}

func (cv *Cvar) Value() float32 {
	return cv.value
}

func (cv *Cvar) SetValue(value float32) {
	if float32(int(value)) == value {
		v := strconv.FormatInt(int64(value), 10)
		cv.SetByString(v)
	} else {
		v := strconv.FormatFloat(float64(value), 'f', -1, 32)
		cv.SetByString(v)
	}
}

func (cv *Cvar) Bool() bool {
	return cv.stringValue != "0"
}

func Get(name string) (*Cvar, bool) {
	cv, ok := cvarByName[name]
	return cv, ok
}

func GetByID(id int) (*Cvar, error) {
	if id < 0 || id >= len(cvarArray) {
		return nil, errors.Errorf("id %d out of bounds", id)
	}
	return cvarArray[id], nil
}

func create(name, value string) *Cvar {
	cv := &Cvar{name: name, defaultValue: value}
	cv.SetByString(value)
	pos := len(cvarArray)
	cvarArray = append(cvarArray, cv)
	cvarByName[name] = cv
	cv.id = pos
	return cv
}

func Register(name, value string, flags flag) (*Cvar, error) {
	if _, ok := cvarByName[name]; ok {
		return nil, errors.Wrap(ErrExists, name)
	}

	cv := create(name, value)

	if flags&ARCHIVE != 0 {
		cv.archive = true
	}
	if flags&NOTIFY != 0 {
		cv.notify = true
	}
	if flags&ROM != 0 {
		cv.rom = true
	}

	return cv, nil
}

func MustRegister(n, v string, flag flag) *Cvar {
	cv, err := Register(n, v, flag)
	if err != nil {
		log.Panic(n)
	}
	return cv
}

// Set assigns value to the named variable.
func Set(name, value string) error {
	cv, ok := Get(name)
	if !ok {
		return errors.Wrap(ErrUnknown, name)
	}
	cv.SetByString(value)
	return nil
}

// SetUser assigns value to the named variable, creating a user defined
// one if it does not exist yet.
func SetUser(name, value string) *Cvar {
	if cv, ok := Get(name); ok {
		cv.SetByString(value)
		return cv
	}
	cv := create(name, value)
	cv.user = true
	return cv
}

func ResetAll() {
	for _, cv := range All() {
		cv.Reset()
	}
}

// Archived returns the name and value of every archived or user defined
// variable, sorted by name.
func Archived() [][2]string {
	var r [][2]string
	for _, cv := range All() {
		if cv.archive || cv.user {
			r = append(r, [2]string{cv.name, cv.stringValue})
		}
	}
	slices.SortFunc(r, func(a, b [2]string) int {
		return cmp.Compare(a[0], b[0])
	})
	return r
}

// List prints all variables through the console log.
func List() {
	cvars := All()
	for _, v := range cvars {
		conlog.SafePrintf("%s%s %s \"%s\"\n",
			func() string {
				if v.Archive() {
					return "*"
				}
				return " "
			}(),
			func() string {
				if v.Notify() {
					return "s"
				}
				return " "
			}(),
			v.Name(),
			v.String())
	}
	conlog.SafePrintf("%v cvars\n", len(cvars))
}
