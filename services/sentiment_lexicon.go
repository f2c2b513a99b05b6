package services

// lexiconEntry scores one opinion word.
type lexiconEntry struct {
	polarity     float64
	subjectivity float64
}

// sentimentLexicon covers the vocabulary of Indian IPO and market commentary.
var sentimentLexicon = map[string]lexiconEntry{
	// positive
	"good":           {0.7, 0.6},
	"great":          {0.8, 0.75},
	"excellent":      {1.0, 1.0},
	"strong":         {0.43, 0.73},
	"stronger":       {0.5, 0.7},
	"robust":         {0.5, 0.6},
	"solid":          {0.4, 0.5},
	"healthy":        {0.5, 0.5},
	"positive":       {0.23, 0.55},
	"bullish":        {0.6, 0.8},
	"optimistic":     {0.5, 0.7},
	"profitable":     {0.5, 0.4},
	"profit":         {0.3, 0.3},
	"growth":         {0.3, 0.3},
	"growing":        {0.3, 0.4},
	"gain":           {0.3, 0.3},
	"gains":          {0.3, 0.3},
	"premium":        {0.2, 0.3},
	"oversubscribed": {0.5, 0.4},
	"demand":         {0.2, 0.3},
	"huge":           {0.4, 0.9},
	"massive":        {0.3, 0.8},
	"impressive":     {1.0, 1.0},
	"attractive":     {0.5, 0.75},
	"undervalued":    {0.4, 0.6},
	"rally":          {0.4, 0.5},
	"surge":          {0.4, 0.5},
	"soar":           {0.5, 0.5},
	"upside":         {0.4, 0.5},
	"recommend":      {0.4, 0.6},
	"subscribe":      {0.2, 0.3},
	"buy":            {0.2, 0.3},
	"best":           {1.0, 0.3},
	"better":         {0.5, 0.5},
	"high":           {0.16, 0.54},
	"record":         {0.2, 0.3},
	"success":        {0.6, 0.6},
	"successful":     {0.75, 0.95},
	"confident":      {0.5, 0.8},
	"stable":         {0.3, 0.4},
	"favourable":     {0.5, 0.6},
	"favorable":      {0.5, 0.6},

	// negative
	"bad":             {-0.7, 0.67},
	"poor":            {-0.4, 0.6},
	"weak":            {-0.38, 0.63},
	"weaker":          {-0.4, 0.6},
	"negative":        {-0.3, 0.4},
	"bearish":         {-0.6, 0.8},
	"loss":            {-0.4, 0.4},
	"losses":          {-0.4, 0.4},
	"decline":         {-0.4, 0.4},
	"declining":       {-0.4, 0.5},
	"fall":            {-0.3, 0.4},
	"falling":         {-0.3, 0.4},
	"drop":            {-0.3, 0.4},
	"crash":           {-0.8, 0.7},
	"risky":           {-0.5, 0.7},
	"risk":            {-0.3, 0.5},
	"overvalued":      {-0.5, 0.7},
	"expensive":       {-0.5, 0.7},
	"costly":          {-0.4, 0.6},
	"avoid":           {-0.5, 0.6},
	"concern":         {-0.3, 0.5},
	"concerns":        {-0.3, 0.5},
	"worried":         {-0.5, 0.8},
	"worry":           {-0.4, 0.7},
	"disappointing":   {-0.6, 0.7},
	"disappointed":    {-0.75, 0.75},
	"terrible":        {-1.0, 1.0},
	"worst":           {-1.0, 1.0},
	"volatile":        {-0.3, 0.6},
	"uncertain":       {-0.3, 0.7},
	"discount":        {-0.2, 0.3},
	"undersubscribed": {-0.5, 0.4},
	"low":             {-0.1, 0.3},
	"muted":           {-0.3, 0.5},
	"sluggish":        {-0.4, 0.6},
	"slump":           {-0.5, 0.5},
	"debt":            {-0.2, 0.3},
	"fraud":           {-0.8, 0.7},
	"penalty":         {-0.4, 0.4},
}

// negations flip and dampen the next opinion word.
var negations = map[string]bool{
	"not":   true,
	"no":    true,
	"never": true,
	"nor":   true,
	"isnt":  true,
	"dont":  true,
	"wont":  true,
	"cant":  true,
}

// intensifiers scale the next opinion word.
var intensifiers = map[string]float64{
	"very":      1.3,
	"extremely": 1.5,
	"highly":    1.3,
	"really":    1.2,
	"super":     1.3,
	"too":       1.2,
	"slightly":  0.6,
	"somewhat":  0.7,
}
