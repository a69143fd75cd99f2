package internstore

import (
	"github.com/gostonefire/internstore/storeerr"
	log "github.com/sirupsen/logrus"
)

// Inversion - One to many mapping built by Invert
//   - Lists holds every distinct list of sources, sources in ascending order
//   - Handles maps a target to the handle of its list in Lists, -1 when nothing maps to the target
type Inversion struct {
	Lists   *VectorIndex
	Handles []int64
}

// Invert - Turns a many to one mapping, where mapping[source] is the target of source, into a one to many
// mapping from every target to all of its sources. Negative targets mean unmapped. Targets having the same
// sources share one list.
//   - mapping is the many to one mapping
//   - base is the base name of the vector index holding the lists
//   - opts are the options of that index
func Invert(mapping []int64, base string, opts Options) (inv *Inversion, err error) {
	var nTargets int64
	for _, target := range mapping {
		if target >= nTargets {
			nTargets = target + 1
		}
	}

	sources := make([][]int64, nTargets)
	for source, target := range mapping {
		if target >= 0 {
			sources[target] = append(sources[target], int64(source))
		}
	}

	lists, err := CreateVectorIndex(base, opts)
	if err != nil {
		return
	}

	handles := make([]int64, nTargets)
	for target, list := range sources {
		if len(list) == 0 {
			handles[target] = -1
			continue
		}
		if handles[target], err = lists.Add(list); err != nil {
			_ = lists.Close()
			return
		}
	}
	if err = lists.Compact(); err != nil {
		_ = lists.Close()
		return
	}

	inv = &Inversion{Lists: lists, Handles: handles}

	log.WithFields(log.Fields{"file": base, "sources": len(mapping), "targets": nTargets, "lists": lists.Len()}).
		Debug("inverted mapping")

	return
}

// Sources - Returns all sources mapping to target, nil when there are none
func (I *Inversion) Sources(target int64) (sources []int64, err error) {
	if target < 0 || target >= int64(len(I.Handles)) {
		err = storeerr.Range("target %d outside [0, %d)", target, len(I.Handles))
		return
	}
	if I.Handles[target] < 0 {
		return
	}

	sources, err = I.Lists.Get(I.Handles[target])

	return
}

// Close - Closes the list index
func (I *Inversion) Close() error {
	return I.Lists.Close()
}
