package preemptk

// Sleep blocks p on the delta list for the given number of milliseconds,
// converted to ticks by rounding up so a sleep(1) never returns on the
// same tick it was issued on (spec.md §4.2's ms-to-tick contract).
func (k *Kernel) Sleep(p *PCB, ms int) {
	ticks := msToTicks(ms, k.cfg.TimeSliceMS)
	if ticks <= 0 {
		k.yield(p)
		return
	}
	k.sleep.Insert(p, ticks)
	k.block(p, BlockSleep)
}

func msToTicks(ms, timeSliceMS int) int {
	if timeSliceMS <= 0 {
		timeSliceMS = 1
	}
	return (ms + timeSliceMS - 1) / timeSliceMS
}
