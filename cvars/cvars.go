// SPDX-License-Identifier: GPL-2.0-or-later

package cvars

import (
	"gochoreo/cvar"
)

var (
	// SceneClampFrameTime bounds a single frame in seconds; 0 disables it.
	SceneClampFrameTime *cvar.Cvar
	// SceneLatency is the sound startup latency speak events start early by.
	SceneLatency   *cvar.Cvar
	ScenePrint     *cvar.Cvar
	SceneTimeScale *cvar.Cvar
	SoundDir       *cvar.Cvar
)

func init() {
	SceneClampFrameTime = cvar.MustRegister("scene_clamp_frametime", "0.1", cvar.ARCHIVE)
	SceneLatency = cvar.MustRegister("scene_latency", "0", cvar.ARCHIVE)
	ScenePrint = cvar.MustRegister("scene_print", "0", cvar.NONE)
	SceneTimeScale = cvar.MustRegister("scene_timescale", "1", cvar.NOTIFY)
	SoundDir = cvar.MustRegister("scene_sounddir", "sound", cvar.ARCHIVE)
}
