package cache

import (
	"testing"
	"time"
)

func TestWindows_Validate(t *testing.T) {
	tests := []struct {
		name    string
		win     Windows
		wantErr bool
	}{
		{name: "defaults", win: DefaultWindows(), wantErr: false},
		{name: "stats", win: StatsWindows(), wantErr: false},
		{name: "zero", win: Windows{}, wantErr: true},
		{name: "sub-second stale", win: Windows{Stale: 100 * time.Millisecond, Retain: time.Minute}, wantErr: true},
		{name: "retain shorter than stale", win: Windows{Stale: time.Minute, Retain: 30 * time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.win.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWindowValues(t *testing.T) {
	if w := DefaultWindows(); w.Stale != 30*time.Second || w.Retain != 120*time.Second {
		t.Errorf("DefaultWindows = %+v", w)
	}
	if w := StatsWindows(); w.Stale != 60*time.Second || w.Retain != 300*time.Second {
		t.Errorf("StatsWindows = %+v", w)
	}
}
