package engine

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/kestrelchess/kestrel/pkg/common"
)

var errSearchTimeout = errors.New("search timeout")

type searchTask struct {
	depth          int
	startingMove   common.Move // for move ordering
	startingScores []int       // per PV index, for aspiration windows
}

type depthResult struct {
	depth int
	nodes int64
	lines []mainLine
}

func lazySmp(ctx context.Context, e *Engine, limits common.LimitsType) {
	var ml = e.genRootMoves(limits.SearchMoves)
	if len(ml) != 0 {
		e.mainLines = []mainLine{{
			depth: 0,
			score: 0,
			moves: []common.Move{ml[0]},
		}}
	}
	if len(ml) <= 1 {
		return
	}

	var numPV = common.Min(common.Max(1, e.MultiPV), len(ml))

	var tasks = make(chan searchTask)
	var taskResults = make(chan depthResult)

	var g, _ = errgroup.WithContext(ctx)
	for i := 0; i < e.Threads; i++ {
		var t = &e.threads[i]
		var moves = cloneMoves(ml)
		g.Go(func() error {
			searchDepth(t, moves, numPV, tasks, taskResults)
			return nil
		})
	}

	go func() {
		g.Wait()
		close(taskResults)
	}()

	iterativeDeepening(e, numPV, tasks, taskResults)
}

func iterativeDeepening(
	e *Engine,
	numPV int,
	tasks chan<- searchTask,
	taskResults <-chan depthResult,
) {
	var searchCountByDepth [stackSize]int
	var completedDepth = 0
	var completedNodes int64
	for {
		var task = searchTask{
			depth:          completedDepth + 1,
			startingMove:   e.mainLines[0].moves[0],
			startingScores: lineScores(e.mainLines, numPV),
		}
		if task.depth < len(searchCountByDepth) &&
			searchCountByDepth[task.depth] >= (e.Threads+1)/2 {
			// some threads search deeper
			task.depth = completedDepth + 2
		}

		if task.depth > maxHeight ||
			e.timeManager.IsDone() {
			// no new iterations
			if tasks != nil {
				close(tasks)
				tasks = nil
			}
		}

		select {
		case taskResult, ok := <-taskResults:
			if !ok {
				// all searches finished
				return
			}
			completedNodes += taskResult.nodes
			if taskResult.depth > completedDepth {
				completedDepth = taskResult.depth
				e.mainLines = taskResult.lines
				e.timeManager.OnIterationComplete(e.mainLines[0])
				if e.progress != nil && e.nodes+completedNodes >= int64(e.ProgressMinNodes) {
					for _, line := range e.mainLines {
						e.progress(e.lineToSearchInfo(line))
					}
				}
			}
		case tasks <- task:
			searchCountByDepth[task.depth]++
		}
	}
}

func lineScores(lines []mainLine, numPV int) []int {
	var result = make([]int, numPV)
	for i := range result {
		if i < len(lines) {
			result[i] = lines[i].score
		}
	}
	return result
}

func searchDepth(
	t *thread,
	ml []common.Move,
	numPV int,
	tasks <-chan searchTask,
	taskResults chan<- depthResult,
) {
	defer func() {
		if r := recover(); r != nil {
			if r == errSearchTimeout {
				return
			}
			panic(r)
		}
	}()

	for task := range tasks {
		var nodesBefore = t.nodes
		if task.startingMove != common.MoveEmpty {
			var index = findMoveIndex(ml, task.startingMove)
			if index >= 0 {
				moveToBegin(ml, index)
			}
		}

		var lines = make([]mainLine, 0, numPV)
		for pvIndex := 0; pvIndex < numPV && pvIndex < len(ml); pvIndex++ {
			// exclude the heads of PV lines already found at this depth
			t.rootMoves = excludeMoves(ml, lines)
			if len(t.rootMoves) == 0 {
				break
			}
			t.rootHint = t.rootMoves[0]
			var prevScore = 0
			if pvIndex < len(task.startingScores) {
				prevScore = task.startingScores[pvIndex]
			}
			var score = aspirationWindow(t, task.depth, prevScore)
			lines = append(lines, mainLine{
				index:    pvIndex,
				depth:    task.depth,
				selDepth: t.selDepth,
				score:    score,
				moves:    t.reconstructPV(),
			})
		}
		sortLines(lines)
		taskResults <- depthResult{
			depth: task.depth,
			lines: lines,
			nodes: t.nodes - nodesBefore,
		}
	}
}

func excludeMoves(ml []common.Move, lines []mainLine) []common.Move {
	var result = make([]common.Move, 0, len(ml))
	for _, m := range ml {
		var excluded = false
		for i := range lines {
			if len(lines[i].moves) != 0 && lines[i].moves[0] == m {
				excluded = true
				break
			}
		}
		if !excluded {
			result = append(result, m)
		}
	}
	return result
}

func sortLines(lines []mainLine) {
	for i := 1; i < len(lines); i++ {
		j, t := i, lines[i]
		for ; j > 0 && lines[j-1].score < t.score; j-- {
			lines[j] = lines[j-1]
		}
		lines[j] = t
	}
	for i := range lines {
		lines[i].index = i
	}
}

func (e *Engine) genRootMoves(searchMoves []string) []common.Move {
	var t = &e.threads[0]
	const height = 0
	var p = &t.stack[height].position
	var result []common.Move
	for _, move := range p.GenerateLegalMoves() {
		if len(searchMoves) != 0 {
			var found = false
			for _, s := range searchMoves {
				if s == move.String() {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		result = append(result, move)
	}
	return result
}

// reconstructPV replays the PV array against a fresh copy of the root
// position and truncates at the first move that fails validation, so a
// corrupt line from a TT collision never escapes the engine.
func (t *thread) reconstructPV() []common.Move {
	var line = t.stack[0].pv.toSlice()
	var pos = t.stack[0].position
	var child common.Position
	var result = make([]common.Move, 0, len(line))
	for _, m := range line {
		if !pos.IsPseudoLegal(m) || !pos.MakeMove(m, &child) {
			break
		}
		result = append(result, m)
		pos = child
	}
	return result
}
