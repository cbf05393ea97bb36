// library_script.go - Lua front end for instrument definitions
//
// (c) 2025 - 2026 Lumen Sound
// License: GPLv3 or later

package main

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// loadLibraryScript evaluates an instrument.lua definition. The script sets
// a global `library` table with the same shape as instrument.json:
//
//	library = {
//	  name = "strings",
//	  instruments = {
//	    { name = "violin",
//	      regions = {
//	        { sample = "violin_c4.wav", root_key = 60,
//	          key_lo = 48, key_hi = 72, vel_lo = 0, vel_hi = 128,
//	          round_robin = 0, feather = true,
//	          loop = { start_frame = 4000, end_frame = -1,
//	                   crossfade_frames = 256, ping_pong = false } } } } } }
func loadLibraryScript(path string) (*librarySpec, error) {
	L := lua.NewState()
	defer L.Close()

	if err := L.DoFile(path); err != nil {
		return nil, fmt.Errorf("library script %s: %w", path, err)
	}

	root, ok := L.GetGlobal("library").(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("library script %s: global `library` table missing", path)
	}

	spec := &librarySpec{Name: luaString(root, "name")}
	insts, ok := L.GetField(root, "instruments").(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("library script %s: `library.instruments` missing", path)
	}

	var walkErr error
	insts.ForEach(func(_, iv lua.LValue) {
		it, ok := iv.(*lua.LTable)
		if !ok {
			walkErr = fmt.Errorf("library script %s: instrument entry is not a table", path)
			return
		}
		inst := instrumentSpec{Name: luaString(it, "name")}
		if regions, ok := L.GetField(it, "regions").(*lua.LTable); ok {
			regions.ForEach(func(_, rv lua.LValue) {
				rt, ok := rv.(*lua.LTable)
				if !ok {
					walkErr = fmt.Errorf("library script %s: region entry is not a table", path)
					return
				}
				inst.Regions = append(inst.Regions, luaRegion(L, rt))
			})
		}
		spec.Instruments = append(spec.Instruments, inst)
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return spec, nil
}

func luaRegion(L *lua.LState, rt *lua.LTable) regionSpec {
	rs := regionSpec{
		Sample:   luaString(rt, "sample"),
		RootKey:  uint8(luaInt(rt, "root_key", 60)),
		Trigger:  luaString(rt, "trigger"),
		KeyLo:    uint8(luaInt(rt, "key_lo", 0)),
		KeyHi:    uint8(luaInt(rt, "key_hi", 0)),
		VelLo:    uint8(luaInt(rt, "vel_lo", 0)),
		VelHi:    uint8(luaInt(rt, "vel_hi", 0)),
		Feather:  luaBool(rt, "feather"),
		TimbreLo: uint8(luaInt(rt, "timbre_lo", 0)),
		TimbreHi: uint8(luaInt(rt, "timbre_hi", 0)),
	}
	if rr := L.GetField(rt, "round_robin"); rr != lua.LNil {
		if n, ok := rr.(lua.LNumber); ok {
			idx := int(n)
			rs.RoundRobin = &idx
		}
	}
	if lt, ok := L.GetField(rt, "loop").(*lua.LTable); ok {
		rs.Loop = &loopSpecJSON{
			StartFrame:      luaInt(lt, "start_frame", 0),
			EndFrame:        luaInt(lt, "end_frame", -1),
			CrossfadeFrames: luaInt(lt, "crossfade_frames", 0),
			PingPong:        luaBool(lt, "ping_pong"),
		}
	}
	return rs
}

func luaString(t *lua.LTable, key string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func luaInt(t *lua.LTable, key string, def int) int {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return int(n)
	}
	return def
}

func luaBool(t *lua.LTable, key string) bool {
	if b, ok := t.RawGetString(key).(lua.LBool); ok {
		return bool(b)
	}
	return false
}
