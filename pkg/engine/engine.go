package engine

import (
	"context"
	"errors"
	"math"
	"runtime"
	"time"

	. "github.com/kestrelchess/kestrel/pkg/common"
)

type Engine struct {
	Hash             int
	Threads          int
	MultiPV          int
	ProgressMinNodes int

	evalBuilder func() interface{}
	timeManager timeManager
	transTable  *transTable
	orderer     *moveOrderer
	reductions  [64][64]int
	lmrReady    bool
	historyKeys map[uint64]int
	threads     []thread
	progress    func(SearchInfo)
	mainLines   []mainLine
	rootIsDraw  bool
	start       time.Time
	nodes       int64
}

type thread struct {
	engine    *Engine
	evaluator Evaluator
	nodes     int64
	selDepth  int
	rootDepth int
	rootMoves []Move
	rootHint  Move
	pickers   [stackSize]movePicker
	qsPickers [stackSize]qsMovePicker
	stack     [stackSize]struct {
		position         Position
		moveList         [MaxMoves]OrderedMove
		captureList      [96]OrderedMove
		quietsSearched   [MaxMoves]Move
		capturesSearched [96]Move
		pv               pv
		staticEval       int
	}
}

type pv struct {
	items [stackSize]Move
	size  int
}

type mainLine struct {
	index    int
	depth    int
	selDepth int
	score    int
	nodes    int64
	moves    []Move
}

type timeManager interface {
	IsDone() bool
	OnNodesChanged(nodes int)
	OnIterationComplete(line mainLine)
	Close()
}

// IEvaluator is the minimal static-evaluation contract; it is adapted
// into an Evaluator for engines without incremental state.
type IEvaluator interface {
	Evaluate(p *Position) int
}

// Evaluator is the incremental evaluation contract the search drives:
// Init seeds the accumulator from a root position, MakeMove/UnmakeMove
// track the search stack, EvaluateQuick reads the current node.
type Evaluator interface {
	Init(p *Position)
	MakeMove(p *Position, m Move)
	UnmakeMove()
	EvaluateQuick(p *Position) int
}

func NewEngine(evalBuilder func() interface{}) *Engine {
	return &Engine{
		Hash:             16,
		Threads:          1,
		MultiPV:          1,
		ProgressMinNodes: 200000,
		evalBuilder:      evalBuilder,
	}
}

func (e *Engine) Prepare() {
	if e.transTable == nil || e.transTable.Size() != e.Hash {
		if e.transTable != nil {
			e.transTable = nil
			runtime.GC()
		}
		e.transTable = newTransTable(e.Hash)
	}
	if e.orderer == nil {
		e.orderer = newMoveOrderer()
	}
	if !e.lmrReady {
		initLmr(&e.reductions)
		e.lmrReady = true
	}
	if len(e.threads) != e.Threads {
		e.threads = make([]thread, e.Threads)
		for i := range e.threads {
			var t = &e.threads[i]
			t.engine = e
			t.evaluator = e.buildEvaluator()
		}
	}
}

func (e *Engine) Search(ctx context.Context, searchParams SearchParams) SearchInfo {
	e.start = time.Now()
	e.Prepare()
	var p = &searchParams.Positions[len(searchParams.Positions)-1]
	var tmCtx context.Context
	tmCtx, e.timeManager = newSimpleTimeManager(ctx, e.start, searchParams.Limits, p)
	defer e.timeManager.Close()
	e.transTable.IncGeneration()
	e.orderer.NewSearch()
	e.historyKeys = getHistoryKeys(searchParams.Positions)
	e.rootIsDraw = e.historyKeys[p.Key] >= 3 || isDraw(p)
	e.nodes = 0
	e.mainLines = nil
	for i := range e.threads {
		var t = &e.threads[i]
		t.nodes = 0
		t.selDepth = 0
		t.stack[0].position = *p
	}
	e.progress = searchParams.Progress
	lazySmp(tmCtx, e, searchParams.Limits)
	for i := range e.threads {
		var t = &e.threads[i]
		e.nodes += t.nodes
		t.nodes = 0
	}
	if e.rootIsDraw {
		for i := range e.mainLines {
			e.mainLines[i].score = valueDraw
		}
	}
	return e.currentSearchResult()
}

func getHistoryKeys(positions []Position) map[uint64]int {
	var result = make(map[uint64]int)
	for i := len(positions) - 1; i >= 0; i-- {
		var p = &positions[i]
		result[p.Key]++
		if p.Rule50 == 0 {
			break
		}
	}
	return result
}

// SetEvalBuilder swaps the evaluator factory; workers are rebuilt on
// the next Prepare.
func (e *Engine) SetEvalBuilder(evalBuilder func() interface{}) {
	e.evalBuilder = evalBuilder
	e.threads = nil
}

func (e *Engine) Clear() {
	if e.transTable != nil {
		e.transTable.Clear()
	}
	if e.orderer != nil {
		e.orderer.Clear()
	}
}

func (e *Engine) lineToSearchInfo(line mainLine) SearchInfo {
	return SearchInfo{
		Depth:    line.depth,
		SelDepth: line.selDepth,
		Index:    line.index + 1,
		MainLine: line.moves,
		Score:    newUciScore(line.score),
		Nodes:    e.nodes + threadNodes(e.threads),
		Time:     time.Since(e.start),
		HashFull: e.transTable.HashFull(),
	}
}

func threadNodes(threads []thread) int64 {
	var result int64
	for i := range threads {
		result += threads[i].nodes
	}
	return result
}

func (e *Engine) currentSearchResult() SearchInfo {
	if len(e.mainLines) == 0 {
		return SearchInfo{}
	}
	var si = e.lineToSearchInfo(e.mainLines[0])
	si.Nodes = e.nodes
	return si
}

func (pv *pv) clear() {
	pv.size = 0
}

func (pv *pv) assign(m Move, child *pv) {
	pv.size = 1
	pv.items[0] = m
	if child.size > 0 {
		pv.size += child.size
		copy(pv.items[1:], child.items[:child.size])
	}
}

func (pv *pv) toSlice() []Move {
	var result = make([]Move, pv.size)
	copy(result, pv.items[:pv.size])
	return result
}

type evaluatorAdapter struct {
	evaluator IEvaluator
}

func (e *evaluatorAdapter) Init(p *Position) {
}

func (e *evaluatorAdapter) MakeMove(p *Position, m Move) {
}

func (e *evaluatorAdapter) UnmakeMove() {
}

func (e *evaluatorAdapter) EvaluateQuick(p *Position) int {
	return e.evaluator.Evaluate(p)
}

func (e *Engine) buildEvaluator() Evaluator {
	var evaluationService = e.evalBuilder()
	if ue, ok := evaluationService.(Evaluator); ok {
		return ue
	}
	if ev, ok := evaluationService.(IEvaluator); ok {
		return &evaluatorAdapter{evaluator: ev}
	}
	panic(errors.New("bad eval builder"))
}

func (e *Engine) lmr(d, m int) int {
	return e.reductions[Min(d, 63)][Min(m, 63)]
}

func initLmr(reductions *[64][64]int) {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			reductions[d][m] = int(lmrMult(float64(d), float64(m)))
		}
	}
}

func lmrMult(d, m float64) float64 {
	return lirp(math.Log(d)*math.Log(m), math.Log(5)*math.Log(22), math.Log(63)*math.Log(63), 3, 8)
}

func lirp(x, x1, x2, y1, y2 float64) float64 {
	return y1 + (y2-y1)*(x-x1)/(x2-x1)
}
